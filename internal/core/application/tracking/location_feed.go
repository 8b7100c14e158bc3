// Package tracking implements the courier location feed: the newest position
// per courier plus a short rolling trail for live maps.
package tracking

import (
	"slices"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
)

// FeedConfig bounds the trail kept per courier.
type FeedConfig struct {
	// Retention is how long samples stay in the trail. The newest sample of
	// a courier is kept regardless of age.
	Retention time.Duration
	// MaxSamples caps the trail length per courier.
	MaxSamples int
}

func DefaultFeedConfig() FeedConfig {
	return FeedConfig{Retention: 30 * time.Minute, MaxSamples: 256}
}

var _ ports.LocationFeed = (*LocationFeed)(nil)

// LocationFeed is an in-memory ports.LocationFeed. Samples of each courier
// are kept sorted by reported_at, so the last one is always the newest seen
// regardless of arrival order. Reports with an already known reported_at
// are ignored, which makes retried network calls idempotent.
type LocationFeed struct {
	cfg    FeedConfig
	mu     sync.RWMutex
	trails map[kernel.UUID][]courier.LocationSample
}

func NewLocationFeed(cfg FeedConfig) *LocationFeed {
	if cfg.MaxSamples < 1 {
		cfg.MaxSamples = 1
	}
	return &LocationFeed{
		cfg:    cfg,
		trails: make(map[kernel.UUID][]courier.LocationSample),
	}
}

// Report stores sample. now is used only to classify samples that are both
// older than the newest known one and outside the retention window.
func (f *LocationFeed) Report(sample courier.LocationSample, now time.Time) ports.ReportOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()

	trail := f.trails[sample.CourierID]
	idx, found := slices.BinarySearchFunc(trail, sample.ReportedAt, func(s courier.LocationSample, at time.Time) int {
		return s.ReportedAt.Compare(at)
	})
	if found {
		return ports.ReportDuplicate
	}

	isLatest := idx == len(trail)
	if !isLatest && now.Sub(sample.ReportedAt) > f.cfg.Retention {
		return ports.ReportExpired
	}

	trail = slices.Insert(trail, idx, sample)
	if overflow := len(trail) - f.cfg.MaxSamples; overflow > 0 {
		trail = slices.Delete(trail, 0, overflow)
	}
	f.trails[sample.CourierID] = trail

	if isLatest {
		return ports.ReportLatest
	}
	return ports.ReportBackfilled
}

// Latest returns the sample with the maximum reported_at seen for the courier.
func (f *LocationFeed) Latest(courierID kernel.UUID) (courier.LocationSample, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	trail := f.trails[courierID]
	if len(trail) == 0 {
		return courier.LocationSample{}, false
	}
	return trail[len(trail)-1], true
}

// RecentTrail returns the samples reported within window before now, oldest first.
func (f *LocationFeed) RecentTrail(courierID kernel.UUID, window time.Duration, now time.Time) []courier.LocationSample {
	f.mu.RLock()
	defer f.mu.RUnlock()

	trail := f.trails[courierID]
	since := now.Add(-window)
	start, _ := slices.BinarySearchFunc(trail, since, func(s courier.LocationSample, at time.Time) int {
		return s.ReportedAt.Compare(at)
	})
	return slices.Clone(trail[start:])
}

// Prune drops samples older than the retention window, keeping the newest
// sample of every courier. Returns the number of samples dropped.
func (f *LocationFeed) Prune(now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	cutoff := now.Add(-f.cfg.Retention)
	dropped := 0
	for id, trail := range f.trails {
		keepFrom, _ := slices.BinarySearchFunc(trail, cutoff, func(s courier.LocationSample, at time.Time) int {
			return s.ReportedAt.Compare(at)
		})
		keepFrom = min(keepFrom, len(trail)-1)
		if keepFrom > 0 {
			f.trails[id] = slices.Delete(trail, 0, keepFrom)
			dropped += keepFrom
		}
	}
	return dropped
}
