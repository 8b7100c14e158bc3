package pgnotify

import (
	"context"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"gorm.io/gorm"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher sends every event with pg_notify on channel.
type Publisher struct {
	db      *gorm.DB
	channel string
	origin  string
}

// NewPublisher returns a publisher tagging its messages with origin, the
// identifier of this instance.
func NewPublisher(db *gorm.DB, channel, origin string) *Publisher {
	return &Publisher{db: db, channel: channel, origin: origin}
}

func (p *Publisher) Publish(ctx context.Context, events ...order.StateChanged) error {
	for _, e := range events {
		payload, err := encode(p.origin, e)
		if err != nil {
			return err
		}
		if err = p.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", p.channel, payload).Error; err != nil {
			return err
		}
	}
	return nil
}
