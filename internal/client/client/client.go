package client

import (
	"context"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
)

// IdentityClient talks to the identity service.
type IdentityClient interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	// SignUp registers a member. The returned session is nil when the
	// account must be confirmed with a one-time code first.
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	VerifyOTP(ctx context.Context, email, code string) (*models.Session, error)
	ResendVerification(ctx context.Context, email string) error
	Refresh(ctx context.Context, refreshToken string) (*models.Session, error)
}

// DataClient reads and writes member rows in the data service.
// Single-row reads return (nil, nil) when the row does not exist.
type DataClient interface {
	ProfileByUser(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error
	TierByID(ctx context.Context, id string) (*models.Tier, error)
	Tiers(ctx context.Context) ([]models.Tier, error)
	ActiveRewards(ctx context.Context) ([]models.Reward, error)
	RedeemReward(ctx context.Context, userID, rewardID string) error
	Stores(ctx context.Context) ([]models.Store, error)
	ActiveDeals(ctx context.Context, limit int) ([]models.Deal, error)
	Transactions(ctx context.Context, userID string, limit int) ([]models.PointTransaction, error)
	Purchases(ctx context.Context, userID string, limit int) ([]models.Purchase, error)
	UnreadNotificationCount(ctx context.Context, userID string) (int, error)
	NotificationSettings(ctx context.Context, userID string) (*models.NotificationSettings, error)
	UpdateNotificationSettings(ctx context.Context, userID string, patch models.NotificationSettingsPatch) error
}

// FunctionsClient invokes remote functions with the member's bearer token.
type FunctionsClient interface {
	Invoke(ctx context.Context, name string, body any) ([]byte, error)
}

// TokenSource yields the bearer token for authenticated requests. An empty
// token means anonymous access with the API key.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// TokenRefresher is implemented by token sources that can force a refresh
// after the backend rejected a token.
type TokenRefresher interface {
	ForceRefresh(ctx context.Context) (string, error)
}
