package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"NewsDesk/internal/domain"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

const errInternal = "internal server error"

// handleError maps domain errors onto status codes with a {"error": message} body.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := s.mapError(err, c)
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.Error("write error response", "error", err)
	}
}

func (s *Server) mapError(err error, c echo.Context) (int, errorResponse) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields}
	}

	var herr *echo.HTTPError
	if errors.As(err, &herr) {
		msg, ok := herr.Message.(string)
		if !ok {
			msg = http.StatusText(herr.Code)
		}
		return herr.Code, errorResponse{Error: msg}
	}

	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrRejectedAsFake),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, errorResponse{Error: rootMessage(err)}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Error: domain.ErrUnauthorized.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: domain.ErrForbidden.Error()}
	case errors.Is(err, domain.ErrTopicNotFound):
		return http.StatusNotFound, errorResponse{Error: domain.ErrTopicNotFound.Error()}
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		return http.StatusNotFound, errorResponse{Error: domain.ErrSubscriptionNotFound.Error()}
	case errors.Is(err, domain.ErrArticleNotFound):
		return http.StatusNotFound, errorResponse{Error: domain.ErrArticleNotFound.Error()}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: domain.ErrUserNotFound.Error()}
	}

	s.logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	return http.StatusInternalServerError, errorResponse{Error: errInternal}
}

// rootMessage returns the sentinel text for known client errors so internal
// wrapping context does not leak into responses.
func rootMessage(err error) string {
	for _, sentinel := range []error{domain.ErrRejectedAsFake, domain.ErrEmailTaken, domain.ErrInvalidCredentials} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
