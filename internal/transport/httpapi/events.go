package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"NewsDesk/internal/domain"
)

// handleEvents streams live events for the caller as Server-Sent Events.
func (s *Server) handleEvents(c echo.Context) error {
	principal := principalFrom(c)
	address := domain.Address(principal.UserID)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	handle := s.deps.Hub.Register(address)
	defer s.deps.Hub.Unregister(handle)

	if _, err := fmt.Fprintf(res, ": connected %s\n\n", address); err != nil {
		return nil
	}
	res.Flush()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("live session closed by client", "address", address, "handle", handle.ID)
			return nil

		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": heartbeat\n\n"); err != nil {
				return nil
			}
			res.Flush()

		case evt, ok := <-handle.Events():
			if !ok {
				return nil
			}
			data, err := json.Marshal(evt.Article)
			if err != nil {
				s.logger.Error("marshal live event", "address", address, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", evt.Name, data); err != nil {
				s.logger.Debug("live session write failed", "address", address, "error", err)
				return nil
			}
			res.Flush()
		}
	}
}
