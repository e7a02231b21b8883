package httpapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"NewsDesk/internal/domain"
)

const principalKey = "principal"

// authenticate resolves the bearer token from the Authorization header or
// the token query parameter. EventSource clients cannot set headers.
func (s *Server) authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				token = strings.TrimSpace(c.QueryParam("token"))
			}
			if token == "" {
				return domain.ErrUnauthorized
			}

			principal, err := s.deps.Tokens.Verify(token)
			if err != nil {
				return err
			}
			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

func requirePermission(p domain.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !principalFrom(c).Role.Can(p) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

func principalFrom(c echo.Context) domain.Principal {
	p, _ := c.Get(principalKey).(domain.Principal)
	return p
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
