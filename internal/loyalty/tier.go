package loyalty

import (
	"math"
	"strings"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
)

const (
	// DefaultTierName is shown when the member has no tier assigned.
	DefaultTierName = "Bronze"
	// FallbackNextTierPoints is the progress ceiling used when there is no next tier.
	FallbackNextTierPoints = 5000
	// FallbackNextTierName labels the progress target when there is no next tier.
	FallbackNextTierName = "VIP"
)

// TierName returns the tier's name or DefaultTierName when t is nil.
func TierName(t *models.Tier) string {
	if t == nil || t.Name == "" {
		return DefaultTierName
	}
	return t.Name
}

// RedeemedTotal approximates lifetime redemptions as earned minus balance.
// See Reconcile for the ledger-based figure.
func RedeemedTotal(p *models.Profile) int64 {
	if p == nil {
		return 0
	}
	return max(0, p.TotalPointsEarned-p.PointsBalance)
}

// LowestTier returns the tier with the smallest SortOrder.
func LowestTier(tiers []models.Tier) *models.Tier {
	var low *models.Tier
	for i := range tiers {
		if low == nil || tiers[i].SortOrder < low.SortOrder {
			low = &tiers[i]
		}
	}
	return low
}

// EffectiveTier returns current, or the lowest tier of the table when the
// member has none assigned.
func EffectiveTier(tiers []models.Tier, current *models.Tier) *models.Tier {
	if current != nil {
		return current
	}
	return LowestTier(tiers)
}

// FindTier resolves a tier reference by id, then by case-insensitive name.
func FindTier(tiers []models.Tier, ref string) *models.Tier {
	if ref == "" {
		return nil
	}
	for i := range tiers {
		if tiers[i].ID == ref {
			return &tiers[i]
		}
	}
	for i := range tiers {
		if strings.EqualFold(tiers[i].Name, ref) {
			return &tiers[i]
		}
	}
	return nil
}

// NextTier returns the tier whose SortOrder directly follows current's.
// It is nil at the top of the table or when the table has a gap.
func NextTier(tiers []models.Tier, current *models.Tier) *models.Tier {
	cur := EffectiveTier(tiers, current)
	if cur == nil {
		return nil
	}
	for i := range tiers {
		if tiers[i].SortOrder == cur.SortOrder+1 {
			return &tiers[i]
		}
	}
	return nil
}

func threshold(next *models.Tier) int64 {
	if next == nil {
		return FallbackNextTierPoints
	}
	return next.MinPoints
}

// ProgressToNextTier returns points as a percentage of the next tier's
// threshold, clamped to [0, 100]. Without a next tier the fallback ceiling
// is used. A non-positive threshold counts as reached.
func ProgressToNextTier(points int64, next *models.Tier) float64 {
	limit := threshold(next)
	if limit <= 0 {
		return 100
	}
	p := float64(points) / float64(limit) * 100
	return math.Max(0, math.Min(100, p))
}

// PointsToNextTier returns how many points are still missing.
func PointsToNextTier(points int64, next *models.Tier) int64 {
	return max(0, threshold(next)-points)
}

// NextTierPoints returns the threshold the progress bar is measured against.
func NextTierPoints(next *models.Tier) int64 {
	return threshold(next)
}

// NextTierName returns the next tier's name or FallbackNextTierName.
func NextTierName(next *models.Tier) string {
	if next == nil || next.Name == "" {
		return FallbackNextTierName
	}
	return next.Name
}

// Summary is the derived view of a member's standing.
type Summary struct {
	TierName       string
	Points         int64
	TotalEarned    int64
	Redeemed       int64
	NextTier       *models.Tier
	NextTierName   string
	NextTierPoints int64
	PointsToNext   int64
	Progress       float64
}

// Summarize derives a Summary. A nil profile yields zero points.
func Summarize(p *models.Profile, current *models.Tier, tiers []models.Tier) Summary {
	var points, earned int64
	if p != nil {
		points, earned = p.PointsBalance, p.TotalPointsEarned
	}
	next := NextTier(tiers, current)

	return Summary{
		TierName:       TierName(current),
		Points:         points,
		TotalEarned:    earned,
		Redeemed:       RedeemedTotal(p),
		NextTier:       next,
		NextTierName:   NextTierName(next),
		NextTierPoints: NextTierPoints(next),
		PointsToNext:   PointsToNextTier(points, next),
		Progress:       ProgressToNextTier(points, next),
	}
}
