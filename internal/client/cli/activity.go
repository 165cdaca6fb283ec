package cli

import (
	"context"

	"github.com/dmitrijs2005/gophloyalty/internal/common"
)

// Feed prints deals, recent points activity, unread notifications and
// purchases.
func (a *App) Feed(ctx context.Context) error {
	f := a.activity.Feed(ctx)
	if f.Partial {
		a.printf("(some sections could not be loaded)\n")
	}

	a.printf("Deals\n")
	if len(f.Deals) == 0 {
		a.printf("  none right now\n")
	}
	for _, d := range f.Deals {
		a.printf("  %-28s %s\n", d.Title, d.Discount)
	}

	if !a.isLoggedIn() {
		return nil
	}

	a.printf("Unread notifications: %d\n", f.UnreadCount)

	a.printf("Recent points\n")
	if len(f.Transactions) == 0 {
		a.printf("  no activity yet\n")
	}
	for _, tx := range f.Transactions {
		a.printf("  %s  %8s  %s\n", formatDate(tx.CreatedAt), formatSigned(tx.Points), deref(tx.Description, tx.Type))
	}

	a.printf("Purchases\n")
	if len(f.Purchases) == 0 {
		a.printf("  no purchases yet\n")
	}
	for _, p := range f.Purchases {
		a.printf("  %s  %-24s R%.2f  %s pts\n", formatDate(p.CreatedAt), p.StoreName, p.TotalAmount, formatSigned(p.PointsEarned))
	}
	return nil
}

// Reconcile checks the profile counters against the points ledger.
func (a *App) Reconcile(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrNotAuthenticated
	}
	rec, err := a.activity.Reconcile(ctx)
	if err != nil {
		return err
	}
	a.printf("Ledger: earned %s, redeemed %s, net %s\n",
		formatPoints(rec.Ledger.Earned), formatPoints(rec.Ledger.Redeemed), formatSigned(rec.Ledger.Net))
	if rec.Consistent() {
		a.printf("Balance matches the ledger.\n")
		return nil
	}
	a.printf("Balance differs from the ledger by %s, lifetime earned by %s.\n",
		formatSigned(rec.BalanceDrift), formatSigned(rec.EarnedDrift))
	return nil
}
