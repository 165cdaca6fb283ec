package models

import "time"

// Point transaction type tags.
const (
	TransactionEarn   = "earn"
	TransactionRedeem = "redeem"
)

// PointTransaction is one append-only ledger entry with a signed delta.
type PointTransaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Points      int64     `json:"points"`
	Type        string    `json:"type"`
	Description *string   `json:"description"`
	Reference   *string   `json:"reference"`
	CreatedAt   time.Time `json:"created_at"`
}

// Purchase is an in-store purchase that earned points.
type Purchase struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	StoreID      *string   `json:"store_id"`
	TotalAmount  float64   `json:"total_amount"`
	PointsEarned int64     `json:"points_earned"`
	CreatedAt    time.Time `json:"created_at"`
}
