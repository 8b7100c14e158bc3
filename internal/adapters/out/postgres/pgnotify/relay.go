package pgnotify

import (
	"context"
	"time"

	"dispatch/internal/core/ports"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	idlePingInterval     = 90 * time.Second
)

// Relay listens on a NOTIFY channel and republishes events from other
// instances to target.
type Relay struct {
	dsn     string
	channel string
	origin  string
	target  ports.EventPublisher
	logger  *zap.Logger
}

func NewRelay(dsn, channel, origin string, target ports.EventPublisher, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		dsn:     dsn,
		channel: channel,
		origin:  origin,
		target:  target,
		logger:  logger.Named("pgnotify_relay").With(zap.String("channel", channel)),
	}
}

// Run blocks until ctx is done or the listener cannot subscribe.
func (r *Relay) Run(ctx context.Context) error {
	listener := pq.NewListener(r.dsn, minReconnectInterval, maxReconnectInterval, r.onListenerEvent)
	defer listener.Close()

	if err := listener.Listen(r.channel); err != nil {
		return err
	}
	r.logger.Info("relay listening")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("relay stopped")
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect; notifications sent meanwhile are lost
			if n == nil {
				continue
			}
			r.forward(ctx, n.Extra)
		case <-time.After(idlePingInterval):
			if err := listener.Ping(); err != nil {
				r.logger.Warn("listener ping failed", zap.Error(err))
			}
		}
	}
}

func (r *Relay) forward(ctx context.Context, payload string) {
	origin, e, err := decode(payload)
	if err != nil {
		r.logger.Warn("undecodable notification", zap.Error(err))
		return
	}
	if origin == r.origin {
		return
	}
	if err = r.target.Publish(ctx, e); err != nil {
		r.logger.Warn("relay publish failed", zap.String("event_id", e.EventID.String()), zap.Error(err))
	}
}

func (r *Relay) onListenerEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
		r.logger.Warn("listener connection problem", zap.Error(err))
	case pq.ListenerEventReconnected:
		r.logger.Info("listener reconnected")
	}
}
