package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/open-tracker/internal/domain"
	"github.com/ignite/open-tracker/internal/pkg/logger"
)

// OpenContext carries the request context of one pixel fetch. All fields
// are optional.
type OpenContext struct {
	EmailID    string
	CampaignID string
	IPAddress  string
	UserAgent  string
	Location   string
}

// Recorder applies open events to the tracking record store.
type Recorder struct {
	store Store
}

// NewRecorder creates a recorder over the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// RecordOpen records one pixel fetch for id and returns the updated record.
//
// The first fetch creates the record with opens=1 and classifies the device
// from the client signature; later fetches increment opens, advance
// lastOpen and refresh the ip/userAgent/location snapshot. Device and
// firstOpen are never re-evaluated. Every fetch counts: prefetch proxies
// and multi-device previews are not collapsed into one logical open.
//
// Tracking is best-effort. Store failures are logged and absorbed, and nil
// is returned, so the caller can always serve the pixel response.
func (r *Recorder) RecordOpen(ctx context.Context, id string, oc OpenContext) *domain.TrackingRecord {
	if id == "" {
		return nil
	}

	// Event id correlates our log line with the external audit collaborator.
	eventID := uuid.NewString()

	evt := domain.OpenEvent{
		EmailID:    oc.EmailID,
		CampaignID: oc.CampaignID,
		IPAddress:  oc.IPAddress,
		UserAgent:  oc.UserAgent,
		Location:   oc.Location,
		At:         time.Now().UTC(),
	}
	if oc.UserAgent != "" {
		evt.Device = ClassifyDevice(oc.UserAgent)
	}

	rec, err := r.store.UpsertOpen(ctx, id, evt)
	if err != nil {
		logger.Error("open recording failed",
			"event_id", eventID,
			"pixel_id", id,
			"campaign_id", oc.CampaignID,
			"error", err.Error(),
		)
		return nil
	}

	logger.Debug("open recorded",
		"event_id", eventID,
		"pixel_id", id,
		"campaign_id", oc.CampaignID,
		"opens", rec.Opens,
		"device", string(rec.Device),
	)
	return rec
}

// Get returns the record for id, or ErrNotFound.
func (r *Recorder) Get(ctx context.Context, id string) (*domain.TrackingRecord, error) {
	return r.store.Get(ctx, id)
}

// ListByCampaign returns all records for a campaign. The result is a
// snapshot; opens recorded mid-call may or may not appear.
func (r *Recorder) ListByCampaign(ctx context.Context, campaignID string) ([]*domain.TrackingRecord, error) {
	return r.store.QueryByCampaign(ctx, campaignID)
}
