// Package pgnotify relays committed order events between dispatch instances
// through Postgres LISTEN/NOTIFY.
package pgnotify

import (
	"encoding/json"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// message is the NOTIFY payload. Origin identifies the publishing instance so
// that its own relay skips events already delivered in-process.
type message struct {
	Origin     string    `json:"origin"`
	EventID    string    `json:"event_id"`
	OrderID    string    `json:"order_id"`
	Folio      string    `json:"folio"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Command    string    `json:"command"`
	Courier    string    `json:"courier,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Version    int       `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
}

func encode(origin string, e order.StateChanged) (string, error) {
	m := message{
		Origin:     origin,
		EventID:    e.EventID.String(),
		OrderID:    e.OrderID.String(),
		Folio:      e.Folio,
		From:       e.From.String(),
		To:         e.To.String(),
		Command:    e.Command.String(),
		Reason:     e.Reason,
		Version:    e.Version,
		OccurredAt: e.OccurredAt,
	}
	if e.Courier != nil {
		m.Courier = e.Courier.String()
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decode(payload string) (string, order.StateChanged, error) {
	var m message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return "", order.StateChanged{}, err
	}

	eventID, err := kernel.UUIDFromString(m.EventID)
	if err != nil {
		return "", order.StateChanged{}, err
	}
	orderID, err := kernel.UUIDFromString(m.OrderID)
	if err != nil {
		return "", order.StateChanged{}, err
	}
	from, err := order.ParseState(m.From)
	if err != nil {
		return "", order.StateChanged{}, err
	}
	to, err := order.ParseState(m.To)
	if err != nil {
		return "", order.StateChanged{}, err
	}
	cmd, err := order.ParseCommand(m.Command)
	if err != nil {
		return "", order.StateChanged{}, err
	}

	e := order.StateChanged{
		EventID:    eventID,
		OrderID:    orderID,
		Folio:      m.Folio,
		From:       from,
		To:         to,
		Command:    cmd,
		Reason:     m.Reason,
		Version:    m.Version,
		OccurredAt: m.OccurredAt,
	}
	if m.Courier != "" {
		courierID, parseErr := kernel.UUIDFromString(m.Courier)
		if parseErr != nil {
			return "", order.StateChanged{}, parseErr
		}
		e.Courier = &courierID
	}
	return m.Origin, e, nil
}
