// Package courierrepo maps courier aggregates to the couriers table through GORM.
package courierrepo

import (
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CourierDTO is a row of the couriers table. The active order set is a
// text[] column so a claim or release is a single-row versioned update.
type CourierDTO struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	DisplayName  string         `gorm:"type:varchar(255);not null"`
	Phone        string         `gorm:"type:varchar(64);not null"`
	ActiveOrders pq.StringArray `gorm:"type:text[];not null"`
	CreatedAt    time.Time      `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	Version      int            `gorm:"not null"`
}

func (CourierDTO) TableName() string {
	return "couriers"
}

func fromDomain(c *courier.Courier) CourierDTO {
	s := c.Snapshot()

	active := make(pq.StringArray, 0, len(s.ActiveOrders))
	for _, orderID := range s.ActiveOrders {
		active = append(active, orderID.String())
	}

	return CourierDTO{
		ID:           s.ID.Bytes(),
		DisplayName:  s.DisplayName,
		Phone:        s.Phone,
		ActiveOrders: active,
		CreatedAt:    s.CreatedAt,
		Version:      s.Version,
	}
}

func toDomain(dto CourierDTO) (*courier.Courier, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	active := make([]kernel.UUID, 0, len(dto.ActiveOrders))
	for _, raw := range dto.ActiveOrders {
		orderID, parseErr := kernel.UUIDFromString(raw)
		if parseErr != nil {
			return nil, parseErr
		}
		active = append(active, orderID)
	}

	return courier.RestoreCourier(courier.Snapshot{
		ID:           id,
		DisplayName:  dto.DisplayName,
		Phone:        dto.Phone,
		ActiveOrders: active,
		CreatedAt:    dto.CreatedAt,
		Version:      dto.Version,
	})
}
