package catalog

import (
	"context"
	"time"
)

// Kinds of cached reference data.
const (
	KindStores  = "stores"
	KindTiers   = "tiers"
	KindRewards = "rewards"
)

// Repository stores one JSON document per kind.
type Repository interface {
	// Put replaces the cached document for kind.
	Put(ctx context.Context, kind string, v any) error
	// Get decodes the cached document into v. found is false when nothing
	// was cached yet.
	Get(ctx context.Context, kind string, v any) (found bool, updatedAt time.Time, err error)
	// Clear drops every cached document.
	Clear(ctx context.Context) error
}
