package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophloyalty/internal/client/client"
	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
)

// SettingsService reads and updates notification preferences. Every toggle
// has its own setter; each returns the settings after the change.
type SettingsService interface {
	Get(ctx context.Context) (models.NotificationSettings, error)
	SetPush(ctx context.Context, on bool) (models.NotificationSettings, error)
	SetEmail(ctx context.Context, on bool) (models.NotificationSettings, error)
	SetSMS(ctx context.Context, on bool) (models.NotificationSettings, error)
	SetWhatsApp(ctx context.Context, on bool) (models.NotificationSettings, error)
	SetDealsAlerts(ctx context.Context, on bool) (models.NotificationSettings, error)
	SetPointsAlerts(ctx context.Context, on bool) (models.NotificationSettings, error)
	SetTierAlerts(ctx context.Context, on bool) (models.NotificationSettings, error)
}

type settingsService struct {
	data  client.DataClient
	users UserSource

	mu   sync.Mutex
	last *models.NotificationSettings
}

// NewSettingsService wires a SettingsService.
func NewSettingsService(data client.DataClient, users UserSource) SettingsService {
	return &settingsService{data: data, users: users}
}

// Get returns the stored settings. A member without a settings row gets
// the defaults. On failure the last known (or default) settings are
// returned together with an ErrFetch.
func (s *settingsService) Get(ctx context.Context) (models.NotificationSettings, error) {
	userID := s.users.UserID()
	if userID == "" {
		return models.DefaultNotificationSettings(), common.ErrNotAuthenticated
	}

	st, err := s.data.NotificationSettings(ctx, userID)
	if err != nil {
		return s.known(), fmt.Errorf("%w: settings: %w", common.ErrFetch, err)
	}
	out := models.DefaultNotificationSettings()
	if st != nil {
		out = *st
	}
	s.mu.Lock()
	s.last = &out
	s.mu.Unlock()
	return out, nil
}

func (s *settingsService) known() models.NotificationSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return models.DefaultNotificationSettings()
	}
	return *s.last
}

func (s *settingsService) update(ctx context.Context, patch models.NotificationSettingsPatch) (models.NotificationSettings, error) {
	userID := s.users.UserID()
	if userID == "" {
		return s.known(), common.ErrNotAuthenticated
	}
	if err := s.data.UpdateNotificationSettings(ctx, userID, patch); err != nil {
		return s.known(), fmt.Errorf("%w: %w", common.ErrUpdate, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	base := models.DefaultNotificationSettings()
	if s.last != nil {
		base = *s.last
	}
	out := patch.Apply(base)
	s.last = &out
	return out, nil
}

func (s *settingsService) SetPush(ctx context.Context, on bool) (models.NotificationSettings, error) {
	return s.update(ctx, models.NotificationSettingsPatch{PushEnabled: &on})
}

func (s *settingsService) SetEmail(ctx context.Context, on bool) (models.NotificationSettings, error) {
	return s.update(ctx, models.NotificationSettingsPatch{EmailEnabled: &on})
}

func (s *settingsService) SetSMS(ctx context.Context, on bool) (models.NotificationSettings, error) {
	return s.update(ctx, models.NotificationSettingsPatch{SMSEnabled: &on})
}

func (s *settingsService) SetWhatsApp(ctx context.Context, on bool) (models.NotificationSettings, error) {
	return s.update(ctx, models.NotificationSettingsPatch{WhatsAppEnabled: &on})
}

func (s *settingsService) SetDealsAlerts(ctx context.Context, on bool) (models.NotificationSettings, error) {
	return s.update(ctx, models.NotificationSettingsPatch{DealsAlerts: &on})
}

func (s *settingsService) SetPointsAlerts(ctx context.Context, on bool) (models.NotificationSettings, error) {
	return s.update(ctx, models.NotificationSettingsPatch{PointsAlerts: &on})
}

func (s *settingsService) SetTierAlerts(ctx context.Context, on bool) (models.NotificationSettings, error) {
	return s.update(ctx, models.NotificationSettingsPatch{TierAlerts: &on})
}
