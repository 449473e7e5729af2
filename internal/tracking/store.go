package tracking

import (
	"context"
	"errors"

	"github.com/ignite/open-tracker/internal/domain"
)

// ErrNotFound is returned by Store.Get when no record exists for an
// identifier.
var ErrNotFound = errors.New("tracking record not found")

// Store persists tracking records. Implementations must make UpsertOpen
// atomic per identifier: concurrent fetches for the same pixel arrive from
// mail-client prefetchers and proxy relays, and no increment may be lost.
// Operations on different identifiers must not contend with each other.
//
// Query results are a snapshot of current state; they are not required to be
// linearizable with concurrent upserts.
type Store interface {
	// UpsertOpen creates the record for id on its first open, or applies a
	// subsequent open to the existing record, as one indivisible
	// increment-or-create. It returns the record after the event.
	UpsertOpen(ctx context.Context, id string, open domain.OpenEvent) (*domain.TrackingRecord, error)

	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.TrackingRecord, error)

	// QueryByCampaign returns all records tagged with campaignID, in no
	// particular order.
	QueryByCampaign(ctx context.Context, campaignID string) ([]*domain.TrackingRecord, error)
}
