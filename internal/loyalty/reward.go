package loyalty

import (
	"fmt"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
)

// tierSatisfied reports whether the member's tier meets the reward's tier
// requirement. A requirement that cannot be resolved is never satisfied.
func tierSatisfied(r models.Reward, current *models.Tier, tiers []models.Tier) bool {
	if r.TierRequired == nil || *r.TierRequired == "" {
		return true
	}
	required := FindTier(tiers, *r.TierRequired)
	if required == nil {
		return false
	}
	member := EffectiveTier(tiers, current)
	if member == nil {
		return false
	}
	return member.SortOrder >= required.SortOrder
}

// IsRewardUnlocked reports whether points cover the reward and the member's
// tier satisfies any tier requirement.
func IsRewardUnlocked(r models.Reward, points int64, current *models.Tier, tiers []models.Tier) bool {
	return points >= r.PointsRequired && tierSatisfied(r, current, tiers)
}

// Redeem validates that the member may redeem r: points first, then the tier
// gate. Availability of the reward is the caller's concern. It does not
// deduct points.
func Redeem(r models.Reward, points int64, current *models.Tier, tiers []models.Tier) error {
	if points < r.PointsRequired {
		return fmt.Errorf("%w: need %d, have %d", common.ErrInsufficientPoints, r.PointsRequired, points)
	}
	if !tierSatisfied(r, current, tiers) {
		return fmt.Errorf("%w: %s", common.ErrTierRequired, requiredTierLabel(r, tiers))
	}
	return nil
}

// RequiredTierName returns the display name of the reward's tier
// requirement, or "" when it has none.
func RequiredTierName(r models.Reward, tiers []models.Tier) string {
	if r.TierRequired == nil {
		return ""
	}
	return requiredTierLabel(r, tiers)
}

func requiredTierLabel(r models.Reward, tiers []models.Tier) string {
	if t := FindTier(tiers, *r.TierRequired); t != nil {
		return t.Name
	}
	return *r.TierRequired
}
