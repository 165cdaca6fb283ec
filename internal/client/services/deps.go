package services

import (
	"context"

	"github.com/dmitrijs2005/gophloyalty/internal/client/profile"
)

// UserSource yields the signed-in user's id, "" when signed out.
type UserSource interface {
	UserID() string
}

// ProfileSource exposes the resolver's cached pair.
type ProfileSource interface {
	Snapshot() profile.Snapshot
	Refresh(ctx context.Context) profile.Snapshot
}

// SessionExpirer ends the local session.
type SessionExpirer interface {
	UserSource
	Expire(ctx context.Context)
}
