package tracking

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ignite/open-tracker/internal/domain"
)

// Aggregator derives campaign-level analytics from recorded opens. Results
// reflect a snapshot of store state: analytics are informational, not
// transactional.
type Aggregator struct {
	store Store
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// OpenRate computes the open rate for a campaign. Opened counts unique
// recipients (distinct emailId; records without one count once per
// identifier), not raw pixel fetches. The tracker only ever sees opens,
// so sentCount must come from the caller; sentCount == 0 yields a zero
// rate rather than an error.
func (a *Aggregator) OpenRate(ctx context.Context, campaignID string, sentCount int64) (domain.OpenRate, error) {
	rate := domain.OpenRate{CampaignID: campaignID, Sent: sentCount}

	records, err := a.store.QueryByCampaign(ctx, campaignID)
	if err != nil {
		return domain.OpenRate{}, fmt.Errorf("query campaign %s: %w", campaignID, err)
	}

	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		key := rec.EmailID
		if key == "" {
			key = rec.Identifier
		}
		seen[key] = struct{}{}
	}
	rate.Opened = int64(len(seen))

	if sentCount > 0 {
		rate.Rate = float64(rate.Opened) / float64(sentCount) * 100
	}
	return rate, nil
}

// Report renders a plain-text campaign report: sent/opened/rate plus record
// counts per device category. Records created without a client signature
// land in the "unknown" bucket.
func (a *Aggregator) Report(ctx context.Context, campaignID string, sentCount int64) (string, error) {
	rate, err := a.OpenRate(ctx, campaignID, sentCount)
	if err != nil {
		return "", err
	}

	records, err := a.store.QueryByCampaign(ctx, campaignID)
	if err != nil {
		return "", fmt.Errorf("query campaign %s: %w", campaignID, err)
	}

	devices := make(map[domain.DeviceType]int64)
	for _, rec := range records {
		dev := rec.Device
		if dev == "" {
			dev = domain.DeviceUnknown
		}
		devices[dev]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Campaign %s\n", campaignID)
	fmt.Fprintf(&b, "  Sent:   %d\n", rate.Sent)
	fmt.Fprintf(&b, "  Opened: %d\n", rate.Opened)
	fmt.Fprintf(&b, "  Rate:   %.2f%%\n", rate.Rate)
	b.WriteString("  Devices:\n")

	names := make([]string, 0, len(devices))
	for dev := range devices {
		names = append(names, string(dev))
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "    %-8s %d\n", name, devices[domain.DeviceType(name)])
	}

	return b.String(), nil
}
