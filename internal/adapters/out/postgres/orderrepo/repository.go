package orderrepo

import (
	"context"
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ ports.OrderRepository = (*GormOrderRepository)(nil)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add inserts the order with its line items. The folio unique index turns
// a duplicate intake into a conflict.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	var taken int64
	if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("folio = ?", aggregate.Folio()).Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		return errs.NewConflictError("order folio", aggregate.Folio(), 0)
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewConflictError("order folio", aggregate.Folio(), 0)
		}
		return err
	}

	return r.appendHistory(ctx, aggregate)
}

// Update writes every mutable column guarded by the version the aggregate
// was loaded with. Zero affected rows means another writer committed first,
// or the order does not exist.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	expected := dto.Version
	dto.Version = expected + 1

	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND version = ?", dto.ID, expected).
		Select("*").
		Omit("id", "folio", "created_at", clause.Associations).
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", dto.ID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return errs.NewObjectNotFoundError("orderID", aggregate.ID())
		}
		return errs.NewConflictError("order", aggregate.Folio(), expected)
	}

	aggregate.AdvanceVersion()
	return r.appendHistory(ctx, aggregate)
}

func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("orderID", id)
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormOrderRepository) ListByFilter(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("created_at, id")

	if len(filter.States) > 0 {
		states := make([]string, 0, len(filter.States))
		for _, s := range filter.States {
			states = append(states, s.String())
		}
		query = query.Where("state IN ?", states)
	}
	if filter.Origin != nil {
		query = query.Where("origin = ?", filter.Origin.String())
	}
	if len(filter.Origins) > 0 {
		origins := make([]string, 0, len(filter.Origins))
		for _, o := range filter.Origins {
			origins = append(origins, o.String())
		}
		query = query.Where("origin IN ?", origins)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		query = query.Where("folio ILIKE ? OR customer_ref ILIKE ? OR address ILIKE ?", pattern, pattern, pattern)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var dtos []OrderDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *GormOrderRepository) History(ctx context.Context, id kernel.UUID) ([]order.HistoryEntry, error) {
	var exists int64
	if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", id.Bytes()).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, errs.NewObjectNotFoundError("orderID", id)
	}

	var dtos []TransitionDTO
	if err := r.db.WithContext(ctx).Where("order_id = ?", id.Bytes()).Order("seq").Find(&dtos).Error; err != nil {
		return nil, err
	}

	history := make([]order.HistoryEntry, 0, len(dtos))
	for _, dto := range dtos {
		entry, err := transitionToDomain(dto)
		if err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, nil
}

func (r *GormOrderRepository) appendHistory(ctx context.Context, aggregate *order.Order) error {
	pending := aggregate.PendingHistory()
	if len(pending) == 0 {
		return nil
	}

	dtos := make([]TransitionDTO, 0, len(pending))
	for _, entry := range pending {
		dtos = append(dtos, transitionFromDomain(entry))
	}
	if err := r.db.WithContext(ctx).Create(&dtos).Error; err != nil {
		return err
	}

	aggregate.ClearPendingHistory()
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
