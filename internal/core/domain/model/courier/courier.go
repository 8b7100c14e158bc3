package courier

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	// ErrDisplayNameIsRequired is returned when registering a courier without a name.
	ErrDisplayNameIsRequired = errs.NewValueIsRequiredError("displayName")
	// ErrCourierIsNotConstructed is returned when using a zero Courier.
	ErrCourierIsNotConstructed = errors.New("Courier must be created via NewCourier constructor")
	// ErrCourierAtCapacity is returned by Claim when the courier already holds
	// the maximum number of active orders.
	ErrCourierAtCapacity = errors.New("courier is at capacity")
	// ErrOrderNotClaimed is returned by Release for an order the courier does not hold.
	ErrOrderNotClaimed = errors.New("order is not held by courier")
)

// Courier (rutero) is the aggregate that owns the set of active orders a
// courier is carrying. The set is mutated only through Claim and Release,
// which the dispatch coordinator calls when executing transition effects.
// Availability is never stored; see DeriveAvailability.
type Courier struct {
	id           kernel.UUID
	displayName  string
	phone        string
	activeOrders []kernel.UUID
	createdAt    time.Time
	version      int
	guard        guard.ConstructorGuard
}

// NewCourier registers a courier with no active orders and version 1.
func NewCourier(id kernel.UUID, displayName, phone string, createdAt time.Time) (*Courier, error) {
	c := &Courier{
		phone:     strings.TrimSpace(phone),
		createdAt: createdAt,
		version:   1,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(id),
		c.setDisplayName(displayName),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// Snapshot is the persisted state of a courier.
type Snapshot struct {
	ID           kernel.UUID
	DisplayName  string
	Phone        string
	ActiveOrders []kernel.UUID
	CreatedAt    time.Time
	Version      int
}

// RestoreCourier reconstructs a courier from persistence.
func RestoreCourier(s Snapshot) (*Courier, error) {
	c := &Courier{
		phone:     s.Phone,
		createdAt: s.CreatedAt,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(s.ID),
		c.setDisplayName(s.DisplayName),
	); err != nil {
		return nil, err
	}
	if s.Version < 1 {
		return nil, errs.NewVersionIsInvalidError("version", fmt.Errorf("%d is less than 1", s.Version))
	}

	for _, orderID := range s.ActiveOrders {
		if err := orderID.Validate(); err != nil {
			return nil, err
		}
		if !c.IsHolding(orderID) {
			c.activeOrders = append(c.activeOrders, orderID)
		}
	}
	c.version = s.Version
	return c, nil
}

func (c *Courier) Snapshot() Snapshot {
	return Snapshot{
		ID:           c.id,
		DisplayName:  c.displayName,
		Phone:        c.phone,
		ActiveOrders: c.ActiveOrders(),
		CreatedAt:    c.createdAt,
		Version:      c.version,
	}
}

func (c *Courier) Validate() error {
	if c == nil {
		return ErrCourierIsNotConstructed
	}
	return c.guard.Validate(ErrCourierIsNotConstructed)
}

func (c *Courier) IsEqual(other *Courier) bool {
	return other != nil && c.id.IsEqual(other.id)
}

func (c *Courier) ID() kernel.UUID {
	return c.id
}

func (c *Courier) DisplayName() string {
	return c.displayName
}

func (c *Courier) Phone() string {
	return c.phone
}

func (c *Courier) CreatedAt() time.Time {
	return c.createdAt
}

func (c *Courier) Version() int {
	return c.version
}

// AdvanceVersion is called by repositories after a successful optimistic write.
func (c *Courier) AdvanceVersion() {
	c.version++
}

// ActiveOrders returns a copy of the active order set in claim order.
func (c *Courier) ActiveOrders() []kernel.UUID {
	return slices.Clone(c.activeOrders)
}

func (c *Courier) ActiveCount() int {
	return len(c.activeOrders)
}

// HasCapacity reports whether one more order fits under capacity.
func (c *Courier) HasCapacity(capacity int) bool {
	return len(c.activeOrders) < capacity
}

func (c *Courier) IsHolding(orderID kernel.UUID) bool {
	return slices.ContainsFunc(c.activeOrders, orderID.IsEqual)
}

// Claim adds orderID to the active set. Claiming an order already held is a
// no-op. The capacity is checked here so that it is re-validated against the
// state being committed, not the state the planner saw.
func (c *Courier) Claim(orderID kernel.UUID, capacity int) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	if c.IsHolding(orderID) {
		return nil
	}
	if !c.HasCapacity(capacity) {
		return fmt.Errorf("%w: %s holds %d of %d", ErrCourierAtCapacity, c.id, len(c.activeOrders), capacity)
	}
	c.activeOrders = append(c.activeOrders, orderID)
	return nil
}

// Release removes orderID from the active set.
func (c *Courier) Release(orderID kernel.UUID) error {
	idx := slices.IndexFunc(c.activeOrders, orderID.IsEqual)
	if idx < 0 {
		return fmt.Errorf("%w: order %s, courier %s", ErrOrderNotClaimed, orderID, c.id)
	}
	c.activeOrders = slices.Delete(c.activeOrders, idx, idx+1)
	return nil
}

func (c *Courier) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *Courier) setDisplayName(displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return ErrDisplayNameIsRequired
	}
	c.displayName = displayName
	return nil
}
