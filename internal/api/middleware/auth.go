package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/expenseflow/reimbursement/internal/core/domain"
	"github.com/expenseflow/reimbursement/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextClaims = "claims"
)

// Authenticator validates bearer tokens. ports.AuthService satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*ports.Claims, error)
}

// Auth validates the bearer token and injects the caller's claims into context.
func Auth(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := authn.Authenticate(c.Request().Context(), parts[1])
			switch {
			case errors.Is(err, domain.ErrTokenRevoked):
				return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
			case errors.Is(err, domain.ErrInvalidToken):
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			case err != nil:
				return err
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextRole, claims.Role)
			c.Set(ContextClaims, *claims)

			return next(c)
		}
	}
}
