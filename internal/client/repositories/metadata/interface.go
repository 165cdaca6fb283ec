package metadata

import "context"

// Keys of the values the client keeps between runs.
const (
	KeySession    = "session"
	KeyAppearance = "theme"
)

// Repository persists small opaque values by key. A missing key reads as
// (nil, nil).
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
