package domain

import "time"

// DeviceType is the coarse device category of the client that fetched a
// tracking pixel.
type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	// DeviceUnknown is used in reports for records created without a
	// client signature. It is never stored on a record.
	DeviceUnknown DeviceType = "unknown"
)

// TrackingRecord is the accumulated open state for one tracking identifier.
// A record exists iff at least one open was recorded for its identifier.
type TrackingRecord struct {
	Identifier string     `json:"identifier"`
	EmailID    string     `json:"email_id,omitempty"`
	CampaignID string     `json:"campaign_id,omitempty"`
	Opens      int64      `json:"opens"`
	FirstOpen  time.Time  `json:"first_open"`
	LastOpen   time.Time  `json:"last_open"`
	Device     DeviceType `json:"device,omitempty"`

	// Last-observed client snapshot, informational only.
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Location  string `json:"location,omitempty"`
}

// OpenEvent is one pixel fetch as seen by the store. EmailID, CampaignID and
// Device only take effect when the event creates the record; the snapshot
// fields overwrite on every event.
type OpenEvent struct {
	EmailID    string
	CampaignID string
	Device     DeviceType
	IPAddress  string
	UserAgent  string
	Location   string
	At         time.Time
}

// OpenRate is the derived open-rate aggregate for one campaign. Sent is
// caller-supplied; the tracker only knows about opens.
type OpenRate struct {
	CampaignID string  `json:"campaign_id"`
	Sent       int64   `json:"sent"`
	Opened     int64   `json:"opened"`
	Rate       float64 `json:"rate"`
}
