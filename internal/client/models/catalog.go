package models

import "time"

// Store is a physical location. Coordinates are WGS84 degrees.
type Store struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Phone     *string `json:"phone"`
	Hours     *string `json:"hours"`
}

// Reward can be redeemed for points. TierRequired holds a tier id or name.
type Reward struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	PointsRequired int64   `json:"points_required"`
	TierRequired   *string `json:"tier_required"`
	Active         bool    `json:"active"`
}

// Deal is a promotion shown on the home feed.
type Deal struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Discount    string     `json:"discount"`
	Brand       *string    `json:"brand"`
	ImageURL    *string    `json:"image_url"`
	Active      bool       `json:"active"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	CreatedAt   time.Time  `json:"created_at"`
}
