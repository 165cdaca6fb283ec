package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophloyalty/internal/client/client"
	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/client/profile"
	"github.com/dmitrijs2005/gophloyalty/internal/client/repositories/catalog"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
	"github.com/dmitrijs2005/gophloyalty/internal/logging"
	"github.com/dmitrijs2005/gophloyalty/internal/loyalty"
)

// RewardStatus is a reward with its lock state for the member.
type RewardStatus struct {
	Reward       models.Reward
	Unlocked     bool
	RequiredTier string
	PointsShort  int64
}

// RewardsView is the rewards screen.
type RewardsView struct {
	Summary loyalty.Summary
	Tiers   []models.Tier
	Rewards []RewardStatus
	// Stale is set when tiers or rewards came from the local cache.
	Stale bool
}

// RewardsService lists rewards and redeems them.
type RewardsService interface {
	Catalog(ctx context.Context) RewardsView
	Redeem(ctx context.Context, rewardID string) (profile.Snapshot, error)
}

type rewardsService struct {
	data     client.DataClient
	cache    catalog.Repository
	profiles ProfileSource
	users    UserSource
	log      logging.Logger
}

// NewRewardsService wires a RewardsService. cache may be nil.
func NewRewardsService(data client.DataClient, cache catalog.Repository, profiles ProfileSource, users UserSource, log logging.Logger) RewardsService {
	if log == nil {
		log = logging.Discard()
	}
	return &rewardsService{data: data, cache: cache, profiles: profiles, users: users, log: log}
}

// cached loads kind with fetch, storing successes in the cache and falling
// back to it on failure.
func cached[T any](ctx context.Context, s *rewardsService, kind string, fetch func(context.Context) ([]T, error)) ([]T, bool, error) {
	list, err := fetch(ctx)
	if err == nil {
		if s.cache != nil {
			if cerr := s.cache.Put(ctx, kind, list); cerr != nil {
				s.log.Warn(ctx, "cache catalog", "kind", kind, "error", cerr)
			}
		}
		return list, false, nil
	}
	s.log.Warn(ctx, "load catalog failed", "kind", kind, "error", err)

	if s.cache != nil {
		var out []T
		found, _, cerr := s.cache.Get(ctx, kind, &out)
		if cerr == nil && found {
			return out, true, nil
		}
	}
	return nil, true, fmt.Errorf("%w: %s: %w", common.ErrFetch, kind, err)
}

func (s *rewardsService) load(ctx context.Context) ([]models.Tier, []models.Reward, bool, error) {
	tiers, staleT, err := cached(ctx, s, catalog.KindTiers, s.data.Tiers)
	if err != nil {
		return nil, nil, true, err
	}
	rewards, staleR, err := cached(ctx, s, catalog.KindRewards, s.data.ActiveRewards)
	if err != nil {
		return tiers, nil, true, err
	}
	return tiers, rewards, staleT || staleR, nil
}

func (s *rewardsService) Catalog(ctx context.Context) RewardsView {
	tiers, rewards, stale, _ := s.load(ctx)
	snap := s.profiles.Snapshot()

	var points int64
	if snap.Profile != nil {
		points = snap.Profile.PointsBalance
	}

	view := RewardsView{
		Summary: loyalty.Summarize(snap.Profile, snap.Tier, tiers),
		Tiers:   tiers,
		Stale:   stale,
	}
	for _, r := range rewards {
		st := RewardStatus{
			Reward:       r,
			Unlocked:     loyalty.IsRewardUnlocked(r, points, snap.Tier, tiers),
			RequiredTier: loyalty.RequiredTierName(r, tiers),
		}
		if short := r.PointsRequired - points; short > 0 {
			st.PointsShort = short
		}
		view.Rewards = append(view.Rewards, st)
	}
	return view
}

// Redeem validates eligibility against a fresh profile and asks the
// backend to deduct the points.
func (s *rewardsService) Redeem(ctx context.Context, rewardID string) (profile.Snapshot, error) {
	userID := s.users.UserID()
	if userID == "" {
		return s.profiles.Snapshot(), common.ErrNotAuthenticated
	}

	tiers, rewards, _, err := s.load(ctx)
	if err != nil {
		return s.profiles.Snapshot(), err
	}

	var reward *models.Reward
	for i := range rewards {
		if rewards[i].ID == rewardID {
			reward = &rewards[i]
			break
		}
	}
	if reward == nil {
		return s.profiles.Snapshot(), fmt.Errorf("%w: %s", common.ErrRewardNotFound, rewardID)
	}
	// cached catalogs may still hold a reward that was switched off
	if !reward.Active {
		return s.profiles.Snapshot(), fmt.Errorf("%w: %s", common.ErrRewardInactive, reward.Title)
	}

	snap := s.profiles.Refresh(ctx)
	if snap.Profile == nil {
		return snap, fmt.Errorf("%w: profile is not available", common.ErrFetch)
	}
	if err := loyalty.Redeem(*reward, snap.Profile.PointsBalance, snap.Tier, tiers); err != nil {
		return snap, err
	}

	if err := s.data.RedeemReward(ctx, userID, reward.ID); err != nil {
		return snap, fmt.Errorf("redeem %q: %w", reward.Title, err)
	}
	s.log.Info(ctx, "reward redeemed", "user_id", userID, "reward_id", reward.ID, "points", reward.PointsRequired)
	return s.profiles.Refresh(ctx), nil
}
