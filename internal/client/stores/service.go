// Package stores keeps the proximity-ranked store list and the member's
// store selection.
package stores

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/client/repositories/catalog"
	"github.com/dmitrijs2005/gophloyalty/internal/geo"
	"github.com/dmitrijs2005/gophloyalty/internal/logging"
)

// Lister loads the store list.
type Lister interface {
	Stores(ctx context.Context) ([]models.Store, error)
}

// Locator yields the reference position and whether it is the fallback.
type Locator interface {
	Locate(ctx context.Context) (geo.Coordinate, bool)
}

// View is the outcome of a refresh.
type View struct {
	Ranked       []geo.Ranked
	Origin       *geo.Coordinate
	UsedFallback bool
	// Stale is set when the list came from memory or the local cache
	// because the backend could not be read.
	Stale    bool
	Selected *models.Store
	Explicit bool
}

// Service ranks stores around the device position.
type Service struct {
	lister  Lister
	cache   catalog.Repository
	locator Locator
	log     logging.Logger

	mu       sync.Mutex
	stores   []models.Store
	view     View
	selector geo.Selector
}

// NewService wires a Service. cache and locator may be nil; without a
// locator stores keep the backend order.
func NewService(lister Lister, cache catalog.Repository, locator Locator, log logging.Logger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{lister: lister, cache: cache, locator: locator, log: log}
}

// loadStores reads the list, falling back to the previous list and then to
// the local cache.
func (s *Service) loadStores(ctx context.Context) ([]models.Store, bool) {
	list, err := s.lister.Stores(ctx)
	if err == nil {
		if s.cache != nil {
			if err := s.cache.Put(ctx, catalog.KindStores, list); err != nil {
				s.log.Warn(ctx, "cache stores", "error", err)
			}
		}
		return list, false
	}
	s.log.Warn(ctx, "load stores failed", "error", err)

	s.mu.Lock()
	prior := s.stores
	s.mu.Unlock()
	if prior != nil {
		return prior, true
	}

	if s.cache != nil {
		var cached []models.Store
		found, updatedAt, cerr := s.cache.Get(ctx, catalog.KindStores, &cached)
		if cerr != nil {
			s.log.Warn(ctx, "read cached stores", "error", cerr)
		} else if found {
			s.log.Info(ctx, "using cached stores", "updated_at", updatedAt)
			return cached, true
		}
	}
	return nil, true
}

// Refresh reloads the stores and the position, re-ranks and updates the
// default selection. It never fails; degraded inputs are reported in View.
func (s *Service) Refresh(ctx context.Context) View {
	list, stale := s.loadStores(ctx)

	var (
		origin   *geo.Coordinate
		fallback bool
	)
	if s.locator != nil {
		c, used := s.locator.Locate(ctx)
		origin, fallback = &c, used
	}

	ranked := geo.Rank(list, origin)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores = list
	s.selector.Update(ranked)
	s.view = View{
		Ranked:       ranked,
		Origin:       origin,
		UsedFallback: fallback,
		Stale:        stale,
	}
	return s.viewLocked()
}

func (s *Service) viewLocked() View {
	v := s.view
	if st, ok := s.selector.Selected(); ok {
		v.Selected = &st
	}
	v.Explicit = s.selector.Explicit()
	return v
}

// View returns the last refresh result with the current selection.
func (s *Service) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Choose selects a store explicitly. Later refreshes keep it.
func (s *Service) Choose(id string) (models.Store, bool) {
	return s.selector.Choose(id)
}

// Selected returns the selected store.
func (s *Service) Selected() (models.Store, bool) {
	return s.selector.Selected()
}

// Directions returns a maps link for the store with id among the last
// ranked list.
func (s *Service) Directions(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.view.Ranked {
		if r.Store.ID == id {
			return geo.DirectionsURL(r.Store), true
		}
	}
	return "", false
}
