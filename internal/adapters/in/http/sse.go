package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StreamEvents handles GET /api/v1/events. Each committed transition is
// written as a state_changed event; a comment line is sent every heartbeat
// so that proxies keep the connection open.
func (s *Server) StreamEvents(ctx echo.Context) error {
	events, cancel := s.events.Subscribe()
	defer cancel()

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	done := ctx.Request().Context().Done()
	for {
		select {
		case <-done:
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(NewStateChanged(e))
			if err != nil {
				s.logger.Error("encoding event", zap.String("event_id", e.EventID.String()), zap.Error(err))
				continue
			}
			if _, err = fmt.Fprintf(res, "id: %s\nevent: state_changed\ndata: %s\n\n", e.EventID, payload); err != nil {
				return nil
			}
			res.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
