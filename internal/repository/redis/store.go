// Package redis provides a Redis-backed tracking record store for
// multi-instance deployments.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/open-tracker/internal/domain"
	"github.com/ignite/open-tracker/internal/tracking"
)

const (
	recordKeyPrefix   = "trk:rec:"
	campaignKeyPrefix = "trk:campaign:"
)

// upsertScript performs the whole increment-or-create as one script so
// concurrent fetches for the same identifier never lose an increment.
// Timestamps travel as unix nanoseconds; last_open only moves forward.
//
// KEYS[1] record hash, KEYS[2] campaign index set.
// ARGV: identifier, email_id, campaign_id, at_nanos, device, ip, ua, location.
var upsertScript = redis.NewScript(`
	local created = redis.call("HSETNX", KEYS[1], "identifier", ARGV[1])
	if created == 1 then
		redis.call("HSET", KEYS[1],
			"email_id", ARGV[2],
			"campaign_id", ARGV[3],
			"opens", 1,
			"first_open", ARGV[4],
			"last_open", ARGV[4],
			"device", ARGV[5],
			"ip_address", ARGV[6],
			"user_agent", ARGV[7],
			"location", ARGV[8])
		if ARGV[3] ~= "" then
			redis.call("SADD", KEYS[2], ARGV[1])
		end
	else
		redis.call("HINCRBY", KEYS[1], "opens", 1)
		local last = tonumber(redis.call("HGET", KEYS[1], "last_open"))
		if last == nil or tonumber(ARGV[4]) > last then
			redis.call("HSET", KEYS[1], "last_open", ARGV[4])
		end
		redis.call("HSET", KEYS[1],
			"ip_address", ARGV[6],
			"user_agent", ARGV[7],
			"location", ARGV[8])
	end
	return created
`)

// Store implements tracking.Store on Redis. Each record is a hash keyed by
// identifier; campaign membership is an index set per campaign.
type Store struct {
	client *redis.Client
}

// New creates a Redis-backed store.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// UpsertOpen applies one open event via the Lua upsert and reads the record
// back. The read is a separate round trip; an open landing in between only
// makes the returned snapshot newer, never stale.
func (s *Store) UpsertOpen(ctx context.Context, id string, open domain.OpenEvent) (*domain.TrackingRecord, error) {
	keys := []string{recordKeyPrefix + id, campaignKeyPrefix + open.CampaignID}
	args := []interface{}{
		id,
		open.EmailID,
		open.CampaignID,
		strconv.FormatInt(open.At.UnixNano(), 10),
		string(open.Device),
		open.IPAddress,
		open.UserAgent,
		open.Location,
	}
	if _, err := upsertScript.Run(ctx, s.client, keys, args...).Result(); err != nil {
		return nil, fmt.Errorf("upsert open %s: %w", id, err)
	}
	return s.Get(ctx, id)
}

// Get returns the record for id, or tracking.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*domain.TrackingRecord, error) {
	fields, err := s.client.HGetAll(ctx, recordKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, tracking.ErrNotFound
	}
	return recordFromHash(fields), nil
}

// QueryByCampaign resolves the campaign index set and loads each record.
// Records deleted between the two steps are skipped.
func (s *Store) QueryByCampaign(ctx context.Context, campaignID string) ([]*domain.TrackingRecord, error) {
	ids, err := s.client.SMembers(ctx, campaignKeyPrefix+campaignID).Result()
	if err != nil {
		return nil, fmt.Errorf("query campaign %s: %w", campaignID, err)
	}

	out := make([]*domain.TrackingRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if err == tracking.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func recordFromHash(fields map[string]string) *domain.TrackingRecord {
	opens, _ := strconv.ParseInt(fields["opens"], 10, 64)
	firstNanos, _ := strconv.ParseInt(fields["first_open"], 10, 64)
	lastNanos, _ := strconv.ParseInt(fields["last_open"], 10, 64)

	return &domain.TrackingRecord{
		Identifier: fields["identifier"],
		EmailID:    fields["email_id"],
		CampaignID: fields["campaign_id"],
		Opens:      opens,
		FirstOpen:  time.Unix(0, firstNanos).UTC(),
		LastOpen:   time.Unix(0, lastNanos).UTC(),
		Device:     domain.DeviceType(fields["device"]),
		IPAddress:  fields["ip_address"],
		UserAgent:  fields["user_agent"],
		Location:   fields["location"],
	}
}
