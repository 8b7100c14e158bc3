package services

import (
	"errors"
	"slices"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// ErrNoCandidate is returned when no courier passes the freshness and capacity
// filters. It is a legitimate outcome, not a failure.
var ErrNoCandidate = errors.New("no courier candidate")

// PlannerConfig holds the tuning knobs of the assignment planner.
type PlannerConfig struct {
	// FreshnessThreshold is the maximum age of a usable location sample.
	FreshnessThreshold time.Duration
	// Capacity is the maximum number of active orders per courier (K).
	Capacity int
	// LoadPenaltyKm is the distance equivalent of one active order in the
	// blended score used for normal and low priority orders.
	LoadPenaltyKm float64
	// AverageSpeedKmh converts distance into travel time for the ETA.
	AverageSpeedKmh float64
	// HandlingTime is added to every ETA.
	HandlingTime time.Duration
	// DefaultETA is used when the order has no delivery coordinates.
	DefaultETA time.Duration
}

// DefaultPlannerConfig returns the production defaults.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		FreshnessThreshold: 5 * time.Minute,
		Capacity:           3,
		LoadPenaltyKm:      2.0,
		AverageSpeedKmh:    25,
		HandlingTime:       10 * time.Minute,
		DefaultETA:         45 * time.Minute,
	}
}

// Candidate is a courier together with its latest location sample, if any.
type Candidate struct {
	Courier *courier.Courier
	Latest  *courier.LocationSample
}

// Proposal is the planner's choice for an order.
type Proposal struct {
	CourierID kernel.UUID
	// DistanceKm is nil when the order has no delivery coordinates.
	DistanceKm          *float64
	Score               float64
	ActiveOrders        int
	EstimatedDeliveryAt time.Time
}

// AssignmentPlanner is a domain service that selects a courier for an order.
//
// Selection algorithm:
//   - drop couriers without a sample fresher than FreshnessThreshold
//   - drop couriers holding Capacity active orders or more
//   - drop the excluded courier (reassignment)
//   - rank by score, then active load, then courier id
//
// Score is the haversine distance for alta/urgente orders and distance plus
// LoadPenaltyKm per active order for normal/baja orders. Orders without
// coordinates are ranked by load only. Ranking depends only on the inputs,
// so identical inputs always yield the same courier.
type AssignmentPlanner struct {
	cfg PlannerConfig
}

func NewAssignmentPlanner(cfg PlannerConfig) AssignmentPlanner {
	return AssignmentPlanner{cfg: cfg}
}

// Config returns the planner configuration.
func (p AssignmentPlanner) Config() PlannerConfig {
	return p.cfg
}

type ranked struct {
	candidate Candidate
	distance  *float64
	score     float64
	load      int
}

// Propose returns the best candidate for o at instant now. exclude, when not
// nil, is never proposed. Returns ErrNoCandidate when the filtered set is empty.
func (p AssignmentPlanner) Propose(o *order.Order, candidates []Candidate, now time.Time, exclude *kernel.UUID) (Proposal, error) {
	if err := o.Validate(); err != nil {
		return Proposal{}, err
	}

	destination := o.Destination()
	pool := make([]ranked, 0, len(candidates))

	for _, c := range candidates {
		if err := c.Courier.Validate(); err != nil {
			return Proposal{}, err
		}
		if exclude != nil && c.Courier.ID().IsEqual(*exclude) {
			continue
		}
		if c.Latest == nil || !c.Latest.IsFreshAt(now, p.cfg.FreshnessThreshold) {
			continue
		}
		if !c.Courier.HasCapacity(p.cfg.Capacity) {
			continue
		}

		r := ranked{candidate: c, load: c.Courier.ActiveCount()}
		if destination != nil {
			d, err := c.Latest.Point.DistanceKm(*destination)
			if err != nil {
				return Proposal{}, err
			}
			r.distance = &d
			r.score = d
			if !o.Priority().ProximityDominates() {
				r.score += p.cfg.LoadPenaltyKm * float64(r.load)
			}
		}
		pool = append(pool, r)
	}

	if len(pool) == 0 {
		return Proposal{}, ErrNoCandidate
	}

	best := slices.MinFunc(pool, compareRanked)
	return Proposal{
		CourierID:           best.candidate.Courier.ID(),
		DistanceKm:          best.distance,
		Score:               best.score,
		ActiveOrders:        best.load,
		EstimatedDeliveryAt: p.estimate(best.distance, now),
	}, nil
}

func (p AssignmentPlanner) estimate(distance *float64, now time.Time) time.Time {
	if distance == nil || p.cfg.AverageSpeedKmh <= 0 {
		return now.Add(p.cfg.DefaultETA)
	}
	travel := time.Duration(*distance / p.cfg.AverageSpeedKmh * float64(time.Hour))
	return now.Add(p.cfg.HandlingTime + travel)
}

func compareRanked(a, b ranked) int {
	switch {
	case a.score < b.score:
		return -1
	case a.score > b.score:
		return 1
	case a.load != b.load:
		return a.load - b.load
	case a.candidate.Courier.ID().Less(b.candidate.Courier.ID()):
		return -1
	case b.candidate.Courier.ID().Less(a.candidate.Courier.ID()):
		return 1
	default:
		return 0
	}
}
