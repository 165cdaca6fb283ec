package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophloyalty/internal/client/client"
	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/client/profile"
)

type fakeData struct {
	client.DataClient

	mu sync.Mutex

	tiers     []models.Tier
	tiersErr  error
	rewards   []models.Reward
	rewardErr error
	redeemed  []string
	redeemErr error

	deals        []models.Deal
	dealsErr     error
	txs          []models.PointTransaction
	txErr        error
	txLimits     []int
	unread       int
	purchases    []models.Purchase
	stores       []models.Store
	storesErr    error
	settings     *models.NotificationSettings
	settingsErr  error
	settingPatch []models.NotificationSettingsPatch
	updateErr    error
}

func (f *fakeData) Tiers(context.Context) ([]models.Tier, error) { return f.tiers, f.tiersErr }

func (f *fakeData) ActiveRewards(context.Context) ([]models.Reward, error) {
	return f.rewards, f.rewardErr
}

func (f *fakeData) RedeemReward(_ context.Context, userID, rewardID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.redeemErr != nil {
		return f.redeemErr
	}
	f.redeemed = append(f.redeemed, userID+":"+rewardID)
	return nil
}

func (f *fakeData) ActiveDeals(_ context.Context, limit int) ([]models.Deal, error) {
	return f.deals, f.dealsErr
}

func (f *fakeData) Transactions(_ context.Context, _ string, limit int) ([]models.PointTransaction, error) {
	f.txLimits = append(f.txLimits, limit)
	return f.txs, f.txErr
}

func (f *fakeData) UnreadNotificationCount(context.Context, string) (int, error) {
	return f.unread, nil
}

func (f *fakeData) Purchases(context.Context, string, int) ([]models.Purchase, error) {
	return f.purchases, nil
}

func (f *fakeData) Stores(context.Context) ([]models.Store, error) { return f.stores, f.storesErr }

func (f *fakeData) NotificationSettings(context.Context, string) (*models.NotificationSettings, error) {
	return f.settings, f.settingsErr
}

func (f *fakeData) UpdateNotificationSettings(_ context.Context, _ string, patch models.NotificationSettingsPatch) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.settingPatch = append(f.settingPatch, patch)
	return nil
}

type fakeUsers string

func (u fakeUsers) UserID() string { return string(u) }

type fakeProfiles struct {
	snap      profile.Snapshot
	afterNext *profile.Snapshot
	refreshes int
}

func (f *fakeProfiles) Snapshot() profile.Snapshot { return f.snap }

func (f *fakeProfiles) Refresh(context.Context) profile.Snapshot {
	f.refreshes++
	if f.afterNext != nil && f.refreshes > 1 {
		f.snap = *f.afterNext
	}
	return f.snap
}

func strPtr(s string) *string { return &s }
