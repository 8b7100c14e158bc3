// Package memory provides an in-process implementation of the order and
// courier stores with the same optimistic concurrency contract as the
// Postgres adapter. It backs the service when STORE=memory and the
// application tests.
package memory

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// Store holds committed state. Aggregates are kept as snapshots and
// restored on every read, so callers never share mutable state.
type Store struct {
	mu       sync.RWMutex
	orders   map[kernel.UUID]order.Snapshot
	folios   map[string]kernel.UUID
	history  map[kernel.UUID][]order.HistoryEntry
	couriers map[kernel.UUID]courier.Snapshot
}

func NewStore() *Store {
	return &Store{
		orders:   make(map[kernel.UUID]order.Snapshot),
		folios:   make(map[string]kernel.UUID),
		history:  make(map[kernel.UUID][]order.HistoryEntry),
		couriers: make(map[kernel.UUID]courier.Snapshot),
	}
}

func (s *Store) order(id kernel.UUID) (order.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.orders[id]
	return snapshot, ok
}

func (s *Store) courier(id kernel.UUID) (courier.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.couriers[id]
	return snapshot, ok
}

func (s *Store) folioTaken(folio string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.folios[folio]
	return ok
}

func (s *Store) orderHistory(id kernel.UUID) []order.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history[id])
}

func (s *Store) listOrders(filter ports.OrderFilter) []order.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]order.Snapshot, 0)
	for _, snapshot := range s.orders {
		if len(filter.States) > 0 && !slices.Contains(filter.States, snapshot.State) {
			continue
		}
		if filter.Origin != nil && snapshot.Origin != *filter.Origin {
			continue
		}
		if len(filter.Origins) > 0 && !slices.Contains(filter.Origins, snapshot.Origin) {
			continue
		}
		if search != "" && !matchesSearch(snapshot, search) {
			continue
		}
		out = append(out, snapshot)
	}

	slices.SortFunc(out, func(a, b order.Snapshot) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

func (s *Store) listCouriers() []courier.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]courier.Snapshot, 0, len(s.couriers))
	for _, snapshot := range s.couriers {
		out = append(out, snapshot)
	}
	slices.SortFunc(out, func(a, b courier.Snapshot) int {
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

func matchesSearch(s order.Snapshot, search string) bool {
	return strings.Contains(strings.ToLower(s.Folio), search) ||
		strings.Contains(strings.ToLower(s.CustomerRef), search) ||
		strings.Contains(strings.ToLower(s.Address), search)
}
