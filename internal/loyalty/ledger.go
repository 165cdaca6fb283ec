package loyalty

import "github.com/dmitrijs2005/gophloyalty/internal/client/models"

// Totals aggregates a ledger. Redeemed is reported as a positive number.
type Totals struct {
	Earned   int64
	Redeemed int64
	Net      int64
}

// LedgerTotals sums positive deltas as earned and negative deltas as redeemed.
func LedgerTotals(txs []models.PointTransaction) Totals {
	var t Totals
	for _, tx := range txs {
		if tx.Points >= 0 {
			t.Earned += tx.Points
		} else {
			t.Redeemed -= tx.Points
		}
	}
	t.Net = t.Earned - t.Redeemed
	return t
}

// Reconciliation compares the denormalized profile counters with the ledger.
// It is only meaningful when txs is the member's complete ledger.
type Reconciliation struct {
	Ledger          Totals
	DerivedRedeemed int64
	// BalanceDrift is PointsBalance minus the ledger net.
	BalanceDrift int64
	// EarnedDrift is TotalPointsEarned minus the ledger's earned sum.
	EarnedDrift int64
}

// Consistent reports whether both counters agree with the ledger.
func (r Reconciliation) Consistent() bool {
	return r.BalanceDrift == 0 && r.EarnedDrift == 0
}

// Reconcile computes the drift between profile counters and the ledger.
func Reconcile(p *models.Profile, txs []models.PointTransaction) Reconciliation {
	totals := LedgerTotals(txs)
	rec := Reconciliation{Ledger: totals, DerivedRedeemed: RedeemedTotal(p)}
	if p != nil {
		rec.BalanceDrift = p.PointsBalance - totals.Net
		rec.EarnedDrift = p.TotalPointsEarned - totals.Earned
	} else {
		rec.BalanceDrift = -totals.Net
		rec.EarnedDrift = -totals.Earned
	}
	return rec
}
