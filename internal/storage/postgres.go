package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/easyrent/scraper/internal/domain"
)

// ErrListingNotFound is returned when no listing exists for the requested id.
var ErrListingNotFound = errors.New("listing not found")

// PostgresStore handles interactions with the PostgreSQL database.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// EnsureSchema creates the listings table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS listings (
			id           TEXT PRIMARY KEY,
			body         TEXT NOT NULL,
			images       TEXT[] NOT NULL DEFAULT '{}',
			created_at   TIMESTAMPTZ NOT NULL,
			status       TEXT NOT NULL,
			contact_id   TEXT,
			contact_name TEXT,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("ensure listings schema: %w", err)
	}
	return nil
}

// SaveListing upserts one listing keyed by its post id.
func (s *PostgresStore) SaveListing(ctx context.Context, l *domain.Listing) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO listings (id, body, images, created_at, status, contact_id, contact_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   body = EXCLUDED.body, images = EXCLUDED.images, status = EXCLUDED.status,
		   contact_id = EXCLUDED.contact_id, contact_name = EXCLUDED.contact_name,
		   updated_at = NOW()`,
		l.ID, l.Text, l.Images, l.CreatedAt, l.Status, nullable(l.ContactID), nullable(l.ContactName),
	)
	if err != nil {
		return fmt.Errorf("save listing %s: %w", l.ID, err)
	}
	return nil
}

// FindByID retrieves a single listing.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	var (
		l           domain.Listing
		contactID   *string
		contactName *string
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, body, images, created_at, status, contact_id, contact_name
		 FROM listings WHERE id = $1`, id,
	).Scan(&l.ID, &l.Text, &l.Images, &l.CreatedAt, &l.Status, &contactID, &contactName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find listing %s: %w", id, err)
	}
	if contactID != nil {
		l.ContactID = *contactID
	}
	if contactName != nil {
		l.ContactName = *contactName
	}
	return &l, nil
}

// nullable maps empty strings to SQL NULL so unknown author fields stay null
// in the store, matching what the downstream converter expects.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
