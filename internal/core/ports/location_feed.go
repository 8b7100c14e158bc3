package ports

import (
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
)

// ReportOutcome tells how the feed treated a location report.
type ReportOutcome string

const (
	// ReportLatest means the sample became the newest for the courier.
	ReportLatest ReportOutcome = "latest"
	// ReportBackfilled means an older sample was kept in the trail only.
	ReportBackfilled ReportOutcome = "backfilled"
	// ReportDuplicate means a sample with the same reported_at was already known.
	ReportDuplicate ReportOutcome = "duplicate"
	// ReportExpired means the sample was older than the trail retention.
	ReportExpired ReportOutcome = "expired"
)

// LocationFeed ingests courier location reports and serves the newest sample
// and a bounded trail. Implementations are safe for concurrent use.
type LocationFeed interface {
	Report(sample courier.LocationSample, now time.Time) ReportOutcome
	Latest(courierID kernel.UUID) (courier.LocationSample, bool)
	RecentTrail(courierID kernel.UUID, window time.Duration, now time.Time) []courier.LocationSample
	Prune(now time.Time) int
}
