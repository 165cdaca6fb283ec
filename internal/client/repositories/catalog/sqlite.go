package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophloyalty/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Put upserts the document for kind.
func (r *SQLiteRepository) Put(ctx context.Context, kind string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}

	query := `INSERT INTO catalog_cache (kind, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, kind, payload, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to cache %s: %w", kind, err)
	}
	return nil
}

// Get loads and decodes the document for kind.
func (r *SQLiteRepository) Get(ctx context.Context, kind string, v any) (bool, time.Time, error) {
	var (
		payload   []byte
		updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `SELECT payload, updated_at FROM catalog_cache WHERE kind = ?`, kind).
		Scan(&payload, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, time.Time{}, nil
	}
	if err != nil {
		return false, time.Time{}, fmt.Errorf("failed to read cached %s: %w", kind, err)
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return false, time.Time{}, fmt.Errorf("failed to decode cached %s: %w", kind, err)
	}
	return true, updatedAt, nil
}

// Clear removes all cached documents.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM catalog_cache`); err != nil {
		return fmt.Errorf("failed to clear catalog cache: %w", err)
	}
	return nil
}
