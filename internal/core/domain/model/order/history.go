package order

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// HistoryEntry is an immutable audit record of one committed transition.
type HistoryEntry struct {
	ID      kernel.UUID
	OrderID kernel.UUID
	From    State
	To      State
	Command Command
	Courier *kernel.UUID
	Reason  string
	At      time.Time
}
