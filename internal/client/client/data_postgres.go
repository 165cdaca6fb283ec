package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
	"github.com/dmitrijs2005/gophloyalty/internal/dbx"
)

// PostgresData implements DataClient directly against the backend database.
// It is meant for trusted deployments such as staff terminals and tooling;
// row-level security is replaced by explicit user_id predicates.
type PostgresData struct {
	db *sql.DB
}

// OpenPostgres opens and pings a pgx-backed *sql.DB.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return db, nil
}

// NewPostgresData returns a DataClient over db.
func NewPostgresData(db *sql.DB) *PostgresData {
	return &PostgresData{db: db}
}

var _ DataClient = (*PostgresData)(nil)

func dbError(err error) error {
	return fmt.Errorf("db error: %w", err)
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

const profileColumns = `id, user_id, name, surname, email, phone, profile_picture_url, tier_id,
	points_balance, total_points_earned, barcode, created_at, updated_at`

func (c *PostgresData) ProfileByUser(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1 LIMIT 1`

	var (
		p                      models.Profile
		phone                  sql.NullString
		picture, tier, barcode sql.NullString
	)
	err := c.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.Name, &p.Surname, &p.Email, &phone, &picture, &tier,
		&p.PointsBalance, &p.TotalPointsEarned, &barcode, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err)
	}

	p.Phone = phone.String
	p.ProfilePictureURL = nullString(picture)
	p.TierID = nullString(tier)
	p.Barcode = nullString(barcode)
	return &p, nil
}

func (c *PostgresData) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error {
	var (
		sets []string
		args []any
	)
	add := func(column string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("name", patch.Name)
	add("surname", patch.Surname)
	add("phone", patch.Phone)
	add("profile_picture_url", patch.ProfilePictureURL)
	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID)
	query := fmt.Sprintf(`UPDATE profiles SET %s, updated_at = now() WHERE user_id = $%d`, strings.Join(sets, ", "), len(args))
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return dbError(err)
	}
	return nil
}

const tierColumns = `id, name, min_points, discount_percentage,
	COALESCE(to_jsonb(benefits), '[]'::jsonb)::text, sort_order`

func scanTier(row interface{ Scan(...any) error }) (models.Tier, error) {
	var (
		t        models.Tier
		benefits []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &t.MinPoints, &t.DiscountPercentage, &benefits, &t.SortOrder); err != nil {
		return t, err
	}
	if len(benefits) > 0 {
		if err := json.Unmarshal(benefits, &t.Benefits); err != nil {
			return t, fmt.Errorf("decode benefits: %w", err)
		}
	}
	return t, nil
}

func (c *PostgresData) TierByID(ctx context.Context, id string) (*models.Tier, error) {
	t, err := scanTier(c.db.QueryRowContext(ctx, `SELECT `+tierColumns+` FROM tiers WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err)
	}
	return &t, nil
}

func (c *PostgresData) Tiers(ctx context.Context) ([]models.Tier, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+tierColumns+` FROM tiers ORDER BY sort_order`)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var out []models.Tier
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, dbError(err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return out, nil
}

func (c *PostgresData) ActiveRewards(ctx context.Context) ([]models.Reward, error) {
	query := `SELECT id, title, description, points_required, tier_required, active
		FROM rewards WHERE active = true ORDER BY points_required`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var out []models.Reward
	for rows.Next() {
		var (
			r          models.Reward
			desc, tier sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Title, &desc, &r.PointsRequired, &tier, &r.Active); err != nil {
			return nil, dbError(err)
		}
		r.Description = nullString(desc)
		r.TierRequired = nullString(tier)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return out, nil
}

// RedeemReward deducts the reward's cost and appends a ledger entry in one
// transaction, locking the profile row for the duration.
func (c *PostgresData) RedeemReward(ctx context.Context, userID, rewardID string) error {
	return dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var (
			title  string
			cost   int64
			active bool
		)
		err := tx.QueryRowContext(ctx, `SELECT title, points_required, active FROM rewards WHERE id = $1`, rewardID).
			Scan(&title, &cost, &active)
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrRewardNotFound
		}
		if err != nil {
			return dbError(err)
		}
		if !active {
			return common.ErrRewardInactive
		}

		var balance int64
		err = tx.QueryRowContext(ctx, `SELECT points_balance FROM profiles WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return dbError(err)
		}
		if balance < cost {
			return fmt.Errorf("%w: need %d, have %d", common.ErrInsufficientPoints, cost, balance)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE profiles SET points_balance = points_balance - $1, updated_at = now() WHERE user_id = $2`,
			cost, userID); err != nil {
			return dbError(err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO point_transactions (user_id, points, type, description, reference) VALUES ($1, $2, $3, $4, $5)`,
			userID, -cost, models.TransactionRedeem, "Reward Redeemed: "+title, rewardID); err != nil {
			return dbError(err)
		}
		return nil
	})
}

func (c *PostgresData) Stores(ctx context.Context) ([]models.Store, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name, address, latitude, longitude, phone, hours FROM stores ORDER BY name`)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var out []models.Store
	for rows.Next() {
		var (
			s            models.Store
			phone, hours sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.Latitude, &s.Longitude, &phone, &hours); err != nil {
			return nil, dbError(err)
		}
		s.Phone = nullString(phone)
		s.Hours = nullString(hours)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return out, nil
}

func (c *PostgresData) ActiveDeals(ctx context.Context, limit int) ([]models.Deal, error) {
	query := `SELECT id, title, description, discount, brand, image_url, active, start_date, end_date, created_at
		FROM deals WHERE active = true ORDER BY created_at DESC LIMIT $1`
	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var out []models.Deal
	for rows.Next() {
		var (
			d                  models.Deal
			desc, brand, image sql.NullString
			end                sql.NullTime
		)
		if err := rows.Scan(&d.ID, &d.Title, &desc, &d.Discount, &brand, &image, &d.Active, &d.StartDate, &end, &d.CreatedAt); err != nil {
			return nil, dbError(err)
		}
		d.Description = nullString(desc)
		d.Brand = nullString(brand)
		d.ImageURL = nullString(image)
		if end.Valid {
			t := end.Time
			d.EndDate = &t
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return out, nil
}

func (c *PostgresData) Transactions(ctx context.Context, userID string, limit int) ([]models.PointTransaction, error) {
	query := `SELECT id, user_id, points, type, description, reference, created_at
		FROM point_transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := c.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var out []models.PointTransaction
	for rows.Next() {
		var (
			tx        models.PointTransaction
			desc, ref sql.NullString
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Points, &tx.Type, &desc, &ref, &tx.CreatedAt); err != nil {
			return nil, dbError(err)
		}
		tx.Description = nullString(desc)
		tx.Reference = nullString(ref)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return out, nil
}

func (c *PostgresData) Purchases(ctx context.Context, userID string, limit int) ([]models.Purchase, error) {
	query := `SELECT id, user_id, store_id, total_amount, points_earned, created_at
		FROM purchases WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := c.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var out []models.Purchase
	for rows.Next() {
		var (
			p     models.Purchase
			store sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.UserID, &store, &p.TotalAmount, &p.PointsEarned, &p.CreatedAt); err != nil {
			return nil, dbError(err)
		}
		p.StoreID = nullString(store)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return out, nil
}

func (c *PostgresData) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false`, userID).Scan(&n)
	if err != nil {
		return 0, dbError(err)
	}
	return n, nil
}

func (c *PostgresData) NotificationSettings(ctx context.Context, userID string) (*models.NotificationSettings, error) {
	query := `SELECT push_enabled, email_enabled, sms_enabled, whatsapp_enabled, deals_alerts, points_alerts, tier_alerts
		FROM user_settings WHERE user_id = $1`
	var s models.NotificationSettings
	err := c.db.QueryRowContext(ctx, query, userID).Scan(
		&s.PushEnabled, &s.EmailEnabled, &s.SMSEnabled, &s.WhatsAppEnabled, &s.DealsAlerts, &s.PointsAlerts, &s.TierAlerts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err)
	}
	return &s, nil
}

func (c *PostgresData) UpdateNotificationSettings(ctx context.Context, userID string, patch models.NotificationSettingsPatch) error {
	var (
		sets []string
		args []any
	)
	add := func(column string, v *bool) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("push_enabled", patch.PushEnabled)
	add("email_enabled", patch.EmailEnabled)
	add("sms_enabled", patch.SMSEnabled)
	add("whatsapp_enabled", patch.WhatsAppEnabled)
	add("deals_alerts", patch.DealsAlerts)
	add("points_alerts", patch.PointsAlerts)
	add("tier_alerts", patch.TierAlerts)
	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID)
	query := fmt.Sprintf(`UPDATE user_settings SET %s, updated_at = now() WHERE user_id = $%d`, strings.Join(sets, ", "), len(args))
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return dbError(err)
	}
	return nil
}
