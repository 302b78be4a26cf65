// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool and table names.
type Config struct {
	DSN             string
	ProvidersTable  string
	GuidesTable     string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// Store reads providers and guide profiles.
type Store struct {
	pool      pool
	providers string
	guides    string
}

// New connects a pool using cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewWithPool(p, cfg.ProvidersTable, cfg.GuidesTable)
	if err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool, providersTable, guidesTable string) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if providersTable == "" {
		providersTable = "providers"
	}
	if guidesTable == "" {
		guidesTable = "guide_profiles"
	}
	for _, table := range []string{providersTable, guidesTable} {
		if !validTableName.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	return &Store{pool: p, providers: providersTable, guides: guidesTable}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping checks connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// GetProvider loads one provider by id.
func (s *Store) GetProvider(ctx context.Context, id string) (directory.Provider, error) {
	query := fmt.Sprintf(`
SELECT id, COALESCE(name, ''), COALESCE(description, ''), COALESCE(notes, ''),
	COALESCE(address, ''), COALESCE(province, ''), COALESCE(main_image_url, ''),
	COALESCE(is_approved, true)
FROM %s
WHERE id = $1`, s.providers)

	var p directory.Provider
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Notes, &p.Address, &p.Province, &p.MainImageURL, &p.IsApproved,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return directory.Provider{}, directory.ErrNotFound
	}
	if err != nil {
		return directory.Provider{}, fmt.Errorf("select provider %s: %w", id, err)
	}
	return p, nil
}

// ListGuideProfiles returns every guide profile ordered by uid.
func (s *Store) ListGuideProfiles(ctx context.Context) ([]directory.GuideProfile, error) {
	query := fmt.Sprintf(`
SELECT uid, COALESCE(full_name, ''), COALESCE(email, ''), COALESCE(card_number, ''),
	expiry_date, last_expiry_notification_at
FROM %s
ORDER BY uid`, s.guides)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select guide profiles: %w", err)
	}
	defer rows.Close()

	var out []directory.GuideProfile
	for rows.Next() {
		var p directory.GuideProfile
		if err := rows.Scan(&p.UID, &p.FullName, &p.Email, &p.CardNumber, &p.ExpiryDate, &p.LastExpiryNotificationAt); err != nil {
			return nil, fmt.Errorf("scan guide profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guide profiles: %w", err)
	}
	return out, nil
}

// MarkNotified records when the last expiry reminder went out.
func (s *Store) MarkNotified(ctx context.Context, uid string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET last_expiry_notification_at = $2 WHERE uid = $1`, s.guides)
	tag, err := s.pool.Exec(ctx, query, uid, at)
	if err != nil {
		return fmt.Errorf("update guide profile %s: %w", uid, err)
	}
	if tag.RowsAffected() == 0 {
		return directory.ErrNotFound
	}
	return nil
}
