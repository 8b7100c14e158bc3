package order

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// StateChanged is emitted after a transition has been committed.
type StateChanged struct {
	EventID    kernel.UUID
	OrderID    kernel.UUID
	Folio      string
	From       State
	To         State
	Command    Command
	Courier    *kernel.UUID
	Reason     string
	Version    int
	OccurredAt time.Time
}

// NewStateChanged builds the event for a history entry of o. version is the
// version the order has after the commit.
func NewStateChanged(o *Order, entry HistoryEntry, version int) StateChanged {
	return StateChanged{
		EventID:    entry.ID,
		OrderID:    o.ID(),
		Folio:      o.Folio(),
		From:       entry.From,
		To:         entry.To,
		Command:    entry.Command,
		Courier:    entry.Courier,
		Reason:     entry.Reason,
		Version:    version,
		OccurredAt: entry.At,
	}
}
