// Package orderrepo maps order aggregates, their line items and their audit
// trail to Postgres tables through GORM.
package orderrepo

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO is a row of the orders table.
type OrderDTO struct {
	ID                  uuid.UUID            `gorm:"type:uuid;primaryKey"`
	Folio               string               `gorm:"type:varchar(64);not null;uniqueIndex"`
	Origin              string               `gorm:"type:varchar(32);not null"`
	CustomerRef         string               `gorm:"type:varchar(255);not null"`
	Address             string               `gorm:"type:text;not null"`
	DestinationLat      *float64             `gorm:"type:double precision"`
	DestinationLng      *float64             `gorm:"type:double precision"`
	Subtotal            decimal.Decimal      `gorm:"type:numeric(14,2);not null"`
	Taxes               decimal.Decimal      `gorm:"type:numeric(14,2);not null"`
	ShippingCost        decimal.Decimal      `gorm:"type:numeric(14,2);not null"`
	Total               decimal.Decimal      `gorm:"type:numeric(14,2);not null"`
	Priority            string               `gorm:"type:varchar(16);not null"`
	State               string               `gorm:"type:varchar(16);not null;index"`
	CourierID           *uuid.UUID           `gorm:"type:uuid;index"`
	EstimatedDeliveryAt *time.Time           `gorm:"type:timestamptz"`
	RejectionReason     string               `gorm:"type:text;not null"`
	CreatedAt           time.Time            `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	StateEnteredAt      map[string]time.Time `gorm:"type:jsonb;serializer:json;not null"`
	Version             int                  `gorm:"not null"`
	Items               []OrderItemDTO       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// OrderItemDTO is a row of the order_items table. Items never change after intake.
type OrderItemDTO struct {
	OrderID    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Position   int             `gorm:"primaryKey;autoIncrement:false"`
	ProductRef string          `gorm:"type:varchar(128);not null"`
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(14,2);not null"`
}

func (OrderItemDTO) TableName() string {
	return "order_items"
}

// TransitionDTO is a row of the append-only order_transitions table.
type TransitionDTO struct {
	Seq       int64      `gorm:"primaryKey;autoIncrement;->"`
	ID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	FromState string     `gorm:"type:varchar(16);not null"`
	ToState   string     `gorm:"type:varchar(16);not null"`
	Command   string     `gorm:"type:varchar(32);not null"`
	CourierID *uuid.UUID `gorm:"type:uuid"`
	Reason    string     `gorm:"type:text;not null"`
	At        time.Time  `gorm:"type:timestamptz;not null"`
}

func (TransitionDTO) TableName() string {
	return "order_transitions"
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()

	dto := OrderDTO{
		ID:                  s.ID.Bytes(),
		Folio:               s.Folio,
		Origin:              s.Origin.String(),
		CustomerRef:         s.CustomerRef,
		Address:             s.Address,
		Subtotal:            s.Subtotal,
		Taxes:               s.Taxes,
		ShippingCost:        s.ShippingCost,
		Total:               s.Total,
		Priority:            s.Priority.String(),
		State:               s.State.String(),
		CourierID:           uuidPtr(s.Courier),
		EstimatedDeliveryAt: s.EstimatedDeliveryAt,
		RejectionReason:     s.RejectionReason,
		CreatedAt:           s.CreatedAt,
		StateEnteredAt:      make(map[string]time.Time, len(s.StateEnteredAt)),
		Version:             s.Version,
	}
	if s.Destination != nil {
		lat, lng := s.Destination.Lat(), s.Destination.Lng()
		dto.DestinationLat, dto.DestinationLng = &lat, &lng
	}
	for state, at := range s.StateEnteredAt {
		dto.StateEnteredAt[state.String()] = at
	}
	for i, item := range s.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			OrderID:    dto.ID,
			Position:   i,
			ProductRef: item.ProductRef(),
			Quantity:   item.Quantity(),
			UnitPrice:  item.UnitPrice(),
		})
	}
	return dto
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	origin, originErr := order.ParseOrigin(dto.Origin)
	priority, priorityErr := order.ParsePriority(dto.Priority)
	state, stateErr := order.ParseState(dto.State)
	if err = errors.Join(originErr, priorityErr, stateErr); err != nil {
		return nil, err
	}

	s := order.Snapshot{
		ID:                  id,
		Folio:               dto.Folio,
		Origin:              origin,
		CustomerRef:         dto.CustomerRef,
		Address:             dto.Address,
		Subtotal:            dto.Subtotal,
		Taxes:               dto.Taxes,
		ShippingCost:        dto.ShippingCost,
		Total:               dto.Total,
		Priority:            priority,
		State:               state,
		EstimatedDeliveryAt: dto.EstimatedDeliveryAt,
		RejectionReason:     dto.RejectionReason,
		CreatedAt:           dto.CreatedAt,
		StateEnteredAt:      make(map[order.State]time.Time, len(dto.StateEnteredAt)),
		Version:             dto.Version,
	}

	if dto.DestinationLat != nil && dto.DestinationLng != nil {
		destination, geoErr := kernel.NewGeoPoint(*dto.DestinationLat, *dto.DestinationLng)
		if geoErr != nil {
			return nil, geoErr
		}
		s.Destination = &destination
	}
	if s.Courier, err = kernelUUIDPtr(dto.CourierID); err != nil {
		return nil, err
	}
	for name, at := range dto.StateEnteredAt {
		entered, parseErr := order.ParseState(name)
		if parseErr != nil {
			return nil, parseErr
		}
		s.StateEnteredAt[entered] = at
	}
	for _, item := range dto.Items {
		lineItem, itemErr := order.NewLineItem(item.ProductRef, item.Quantity, item.UnitPrice)
		if itemErr != nil {
			return nil, itemErr
		}
		s.Items = append(s.Items, lineItem)
	}

	return order.RestoreOrder(s)
}

func transitionFromDomain(e order.HistoryEntry) TransitionDTO {
	return TransitionDTO{
		ID:        e.ID.Bytes(),
		OrderID:   e.OrderID.Bytes(),
		FromState: e.From.String(),
		ToState:   e.To.String(),
		Command:   e.Command.String(),
		CourierID: uuidPtr(e.Courier),
		Reason:    e.Reason,
		At:        e.At,
	}
}

func transitionToDomain(dto TransitionDTO) (order.HistoryEntry, error) {
	id, idErr := kernel.UUIDFromBytes(dto.ID[:])
	orderID, orderErr := kernel.UUIDFromBytes(dto.OrderID[:])
	from, fromErr := order.ParseState(dto.FromState)
	to, toErr := order.ParseState(dto.ToState)
	cmd, cmdErr := order.ParseCommand(dto.Command)
	courierID, courierErr := kernelUUIDPtr(dto.CourierID)
	if err := errors.Join(idErr, orderErr, fromErr, toErr, cmdErr, courierErr); err != nil {
		return order.HistoryEntry{}, err
	}

	return order.HistoryEntry{
		ID:      id,
		OrderID: orderID,
		From:    from,
		To:      to,
		Command: cmd,
		Courier: courierID,
		Reason:  dto.Reason,
		At:      dto.At,
	}, nil
}

func uuidPtr(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func kernelUUIDPtr(raw *uuid.UUID) (*kernel.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := kernel.UUIDFromBytes(raw[:])
	if err != nil {
		return nil, err
	}
	return &id, nil
}
