// Package memory provides an in-process tracking record store for
// single-instance deployments and tests.
package memory

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/ignite/open-tracker/internal/domain"
	"github.com/ignite/open-tracker/internal/tracking"
)

const shardCount = 32

type shard struct {
	mu      sync.Mutex
	records map[string]*domain.TrackingRecord
}

// Store is a sharded in-memory implementation of tracking.Store. Sharding
// by identifier keeps upserts for different pixels from contending while
// still making each upsert atomic per key.
type Store struct {
	shards [shardCount]*shard
}

// New creates an empty in-memory store.
func New() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]*domain.TrackingRecord)}
	}
	return s
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

// UpsertOpen applies one open event under the key's shard lock.
func (s *Store) UpsertOpen(ctx context.Context, id string, open domain.OpenEvent) (*domain.TrackingRecord, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[id]
	if !ok {
		rec = &domain.TrackingRecord{
			Identifier: id,
			EmailID:    open.EmailID,
			CampaignID: open.CampaignID,
			Opens:      1,
			FirstOpen:  open.At,
			LastOpen:   open.At,
			Device:     open.Device,
			IPAddress:  open.IPAddress,
			UserAgent:  open.UserAgent,
			Location:   open.Location,
		}
		sh.records[id] = rec
	} else {
		rec.Opens++
		if open.At.After(rec.LastOpen) {
			rec.LastOpen = open.At
		}
		rec.IPAddress = open.IPAddress
		rec.UserAgent = open.UserAgent
		rec.Location = open.Location
	}

	cp := *rec
	return &cp, nil
}

// Get returns a copy of the record for id.
func (s *Store) Get(ctx context.Context, id string) (*domain.TrackingRecord, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[id]
	if !ok {
		return nil, tracking.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// QueryByCampaign scans all shards. Each shard is locked independently, so
// the result is a per-shard snapshot, not a global one.
func (s *Store) QueryByCampaign(ctx context.Context, campaignID string) ([]*domain.TrackingRecord, error) {
	var out []*domain.TrackingRecord
	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, rec := range sh.records {
			if rec.CampaignID == campaignID {
				cp := *rec
				out = append(out, &cp)
			}
		}
		sh.mu.Unlock()
	}
	return out, nil
}
