package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expenseflow/reimbursement/internal/api/middleware"
	"github.com/expenseflow/reimbursement/internal/core/ports"
)

// ctxActor extracts the caller injected by the Auth middleware. Presence of
// both user id and role proves the middleware ran.
func ctxActor(c echo.Context) (ports.Actor, error) {
	userID, _ := c.Get(middleware.ContextUserID).(string)
	role, _ := c.Get(middleware.ContextRole).(string)
	if userID == "" || role == "" {
		return ports.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return ports.Actor{UserID: userID, Role: role}, nil
}

func ctxClaims(c echo.Context) (ports.Claims, error) {
	claims, ok := c.Get(middleware.ContextClaims).(ports.Claims)
	if !ok {
		return ports.Claims{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}

// bindAndValidate decodes the JSON body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
