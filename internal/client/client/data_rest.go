package client

import (
	"context"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
)

// RESTData implements DataClient against PostgREST-style /rest/v1 endpoints.
type RESTData struct {
	rest   *REST
	tokens TokenSource
}

// NewRESTData returns a DataClient authenticated by tokens.
func NewRESTData(rest *REST, tokens TokenSource) *RESTData {
	return &RESTData{rest: rest, tokens: tokens}
}

var _ DataClient = (*RESTData)(nil)

func (c *RESTData) list(ctx context.Context, q *query, out any) error {
	resp, err := c.rest.authed(ctx, c.tokens, q.get())
	if err != nil {
		return err
	}
	return resp.JSON(out)
}

// first returns the first row of q, or nil when there is none.
func first[T any](ctx context.Context, c *RESTData, q *query) (*T, error) {
	var rows []T
	if err := c.list(ctx, q.Limit(1), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *RESTData) ProfileByUser(ctx context.Context, userID string) (*models.Profile, error) {
	return first[models.Profile](ctx, c, from(common.TableProfiles).Select("*").Eq("user_id", userID))
}

func (c *RESTData) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error {
	_, err := c.rest.authed(ctx, c.tokens, from(common.TableProfiles).Eq("user_id", userID).patch(patch))
	return err
}

func (c *RESTData) TierByID(ctx context.Context, id string) (*models.Tier, error) {
	return first[models.Tier](ctx, c, from(common.TableTiers).Select("*").Eq("id", id))
}

func (c *RESTData) Tiers(ctx context.Context) ([]models.Tier, error) {
	var out []models.Tier
	err := c.list(ctx, from(common.TableTiers).Select("*").Order("sort_order", true), &out)
	return out, err
}

func (c *RESTData) ActiveRewards(ctx context.Context) ([]models.Reward, error) {
	var out []models.Reward
	err := c.list(ctx, from(common.TableRewards).Select("*").Eq("active", true).Order("points_required", true), &out)
	return out, err
}

func (c *RESTData) RedeemReward(ctx context.Context, userID, rewardID string) error {
	_, err := c.rest.authed(ctx, c.tokens, rpc(common.RedeemRewardFunction, map[string]string{
		"user_id":   userID,
		"reward_id": rewardID,
	}))
	return err
}

func (c *RESTData) Stores(ctx context.Context) ([]models.Store, error) {
	var out []models.Store
	err := c.list(ctx, from(common.TableStores).Select("*").Order("name", true), &out)
	return out, err
}

func (c *RESTData) ActiveDeals(ctx context.Context, limit int) ([]models.Deal, error) {
	var out []models.Deal
	err := c.list(ctx, from(common.TableDeals).Select("*").Eq("active", true).Order("created_at", false).Limit(limit), &out)
	return out, err
}

func (c *RESTData) Transactions(ctx context.Context, userID string, limit int) ([]models.PointTransaction, error) {
	var out []models.PointTransaction
	q := from(common.TablePointTransactions).Select("*").Eq("user_id", userID).Order("created_at", false).Limit(limit)
	err := c.list(ctx, q, &out)
	return out, err
}

func (c *RESTData) Purchases(ctx context.Context, userID string, limit int) ([]models.Purchase, error) {
	var out []models.Purchase
	q := from(common.TablePurchases).Select("*").Eq("user_id", userID).Order("created_at", false).Limit(limit)
	err := c.list(ctx, q, &out)
	return out, err
}

func (c *RESTData) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	q := from(common.TableNotifications).Select("id").Eq("user_id", userID).Eq("read", false).Limit(1).Count()
	resp, err := c.rest.authed(ctx, c.tokens, q.get())
	if err != nil {
		return 0, err
	}
	return resp.count()
}

func (c *RESTData) NotificationSettings(ctx context.Context, userID string) (*models.NotificationSettings, error) {
	return first[models.NotificationSettings](ctx, c, from(common.TableUserSettings).Select("*").Eq("user_id", userID))
}

func (c *RESTData) UpdateNotificationSettings(ctx context.Context, userID string, patch models.NotificationSettingsPatch) error {
	_, err := c.rest.authed(ctx, c.tokens, from(common.TableUserSettings).Eq("user_id", userID).patch(patch))
	return err
}
