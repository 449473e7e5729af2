// Package postgres provides a PostgreSQL-backed tracking record store for
// durable deployments.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/open-tracker/internal/domain"
	"github.com/ignite/open-tracker/internal/tracking"
)

// Store implements tracking.Store against PostgreSQL. The upsert is a
// single INSERT ... ON CONFLICT round trip, so per-identifier atomicity
// comes from the database's row lock.
type Store struct{ db *sql.DB }

// New creates a Postgres-backed store.
func New(db *sql.DB) *Store { return &Store{db: db} }

// EnsureSchema creates the tracking table and campaign index if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tracking_records (
			identifier  TEXT PRIMARY KEY,
			email_id    TEXT NOT NULL DEFAULT '',
			campaign_id TEXT NOT NULL DEFAULT '',
			opens       BIGINT NOT NULL,
			first_open  TIMESTAMPTZ NOT NULL,
			last_open   TIMESTAMPTZ NOT NULL,
			device      TEXT NOT NULL DEFAULT '',
			ip_address  TEXT NOT NULL DEFAULT '',
			user_agent  TEXT NOT NULL DEFAULT '',
			location    TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS tracking_records_campaign_idx
			ON tracking_records (campaign_id) WHERE campaign_id <> '';
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const upsertQuery = `
	INSERT INTO tracking_records (
		identifier, email_id, campaign_id, opens, first_open, last_open,
		device, ip_address, user_agent, location
	) VALUES ($1, $2, $3, 1, $4, $4, $5, $6, $7, $8)
	ON CONFLICT (identifier) DO UPDATE SET
		opens      = tracking_records.opens + 1,
		last_open  = GREATEST(tracking_records.last_open, EXCLUDED.last_open),
		ip_address = EXCLUDED.ip_address,
		user_agent = EXCLUDED.user_agent,
		location   = EXCLUDED.location
	RETURNING identifier, email_id, campaign_id, opens, first_open, last_open,
		device, ip_address, user_agent, location`

// UpsertOpen applies one open event and returns the resulting record.
// email_id, campaign_id, device and first_open are only written on create;
// the conflict branch leaves them untouched.
func (s *Store) UpsertOpen(ctx context.Context, id string, open domain.OpenEvent) (*domain.TrackingRecord, error) {
	rec := &domain.TrackingRecord{}
	err := s.db.QueryRowContext(ctx, upsertQuery,
		id, open.EmailID, open.CampaignID, open.At.UTC(),
		string(open.Device), open.IPAddress, open.UserAgent, open.Location,
	).Scan(
		&rec.Identifier, &rec.EmailID, &rec.CampaignID, &rec.Opens,
		&rec.FirstOpen, &rec.LastOpen, &rec.Device, &rec.IPAddress,
		&rec.UserAgent, &rec.Location,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert open %s: %w", id, err)
	}
	return rec, nil
}

const selectColumns = `
	SELECT identifier, email_id, campaign_id, opens, first_open, last_open,
		device, ip_address, user_agent, location
	FROM tracking_records`

// Get returns the record for id, or tracking.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*domain.TrackingRecord, error) {
	rec := &domain.TrackingRecord{}
	err := s.db.QueryRowContext(ctx, selectColumns+` WHERE identifier = $1`, id).Scan(
		&rec.Identifier, &rec.EmailID, &rec.CampaignID, &rec.Opens,
		&rec.FirstOpen, &rec.LastOpen, &rec.Device, &rec.IPAddress,
		&rec.UserAgent, &rec.Location,
	)
	if err == sql.ErrNoRows {
		return nil, tracking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return rec, nil
}

// QueryByCampaign returns all records tagged with campaignID.
func (s *Store) QueryByCampaign(ctx context.Context, campaignID string) ([]*domain.TrackingRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE campaign_id = $1`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("query campaign %s: %w", campaignID, err)
	}
	defer rows.Close()

	var out []*domain.TrackingRecord
	for rows.Next() {
		rec := &domain.TrackingRecord{}
		if err := rows.Scan(
			&rec.Identifier, &rec.EmailID, &rec.CampaignID, &rec.Opens,
			&rec.FirstOpen, &rec.LastOpen, &rec.Device, &rec.IPAddress,
			&rec.UserAgent, &rec.Location,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}
