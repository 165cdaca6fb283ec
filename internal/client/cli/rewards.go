package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophloyalty/internal/client/services"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
)

func rewardState(r services.RewardStatus) string {
	switch {
	case r.Unlocked:
		return "available"
	case r.PointsShort > 0:
		return fmt.Sprintf("%s more points", formatPoints(r.PointsShort))
	case r.RequiredTier != "":
		return r.RequiredTier + " tier required"
	default:
		return "locked"
	}
}

// Rewards lists the active rewards with their lock state.
func (a *App) Rewards(ctx context.Context) error {
	view := a.rewards.Catalog(ctx)
	if view.Stale {
		a.printf("(offline: showing saved rewards)\n")
	}
	a.printf("%s tier, %s points\n", view.Summary.TierName, formatPoints(view.Summary.Points))
	if len(view.Rewards) == 0 {
		a.printf("No rewards available.\n")
		return nil
	}
	for _, r := range view.Rewards {
		a.printf("  %-10s %-28s %8s pts  %s\n",
			r.Reward.ID, r.Reward.Title, formatPoints(r.Reward.PointsRequired), rewardState(r))
	}
	return nil
}

// Redeem spends points on the reward named by args[0] after a confirmation.
func (a *App) Redeem(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: redeem <reward id>")
	}
	if !a.isLoggedIn() {
		return common.ErrNotAuthenticated
	}

	ok, err := getConfirmation(a.reader, fmt.Sprintf("Redeem reward %s?", args[0]), a.out)
	if err != nil {
		return err
	}
	if !ok {
		a.printf("Cancelled.\n")
		return nil
	}

	snap, err := a.rewards.Redeem(ctx, args[0])
	if err != nil {
		return err
	}
	balance := int64(0)
	if snap.Profile != nil {
		balance = snap.Profile.PointsBalance
	}
	a.printf("Reward redeemed. New balance: %s points\n", formatPoints(balance))
	return nil
}
