package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/client/repositories/metadata"
)

// DefaultAppearance is used until the member toggles it.
const DefaultAppearance = models.AppearanceDark

// AppearanceService persists the light/dark preference on this device.
type AppearanceService interface {
	Get(ctx context.Context) models.Appearance
	Toggle(ctx context.Context) (models.Appearance, error)
}

type appearanceService struct {
	repo metadata.Repository
}

// NewAppearanceService stores the preference in repo.
func NewAppearanceService(repo metadata.Repository) AppearanceService {
	return &appearanceService{repo: repo}
}

func (s *appearanceService) Get(ctx context.Context) models.Appearance {
	v, err := s.repo.Get(ctx, metadata.KeyAppearance)
	if err != nil || v == nil {
		return DefaultAppearance
	}
	switch a := models.Appearance(v); a {
	case models.AppearanceDark, models.AppearanceLight:
		return a
	default:
		return DefaultAppearance
	}
}

func (s *appearanceService) Toggle(ctx context.Context) (models.Appearance, error) {
	cur := s.Get(ctx)
	next := cur.Toggle()
	if err := s.repo.Set(ctx, metadata.KeyAppearance, []byte(next)); err != nil {
		return cur, fmt.Errorf("save appearance: %w", err)
	}
	return next, nil
}
