package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/expenseflow/reimbursement/internal/api/middleware"
	"github.com/expenseflow/reimbursement/internal/core/domain"
	"github.com/expenseflow/reimbursement/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
	logoutFn   func(ctx context.Context, claims ports.Claims) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*ports.Claims, error) {
	return nil, domain.ErrInvalidToken
}

func (s *stubAuthService) Logout(ctx context.Context, claims ports.Claims) error {
	return s.logoutFn(ctx, claims)
}

type stubReimbursementService struct {
	createFn func(ctx context.Context, actor ports.Actor, in ports.CreateReimbursementInput) (*domain.Reimbursement, error)
	getFn    func(ctx context.Context, actor ports.Actor, id string) (*domain.Reimbursement, error)
	listFn   func(ctx context.Context, actor ports.Actor) ([]*domain.Reimbursement, error)
	decideFn func(ctx context.Context, actor ports.Actor, in ports.DecisionInput) (*domain.Reimbursement, error)
}

func (s *stubReimbursementService) Create(ctx context.Context, actor ports.Actor, in ports.CreateReimbursementInput) (*domain.Reimbursement, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubReimbursementService) Get(ctx context.Context, actor ports.Actor, id string) (*domain.Reimbursement, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubReimbursementService) ListMine(ctx context.Context, actor ports.Actor) ([]*domain.Reimbursement, error) {
	return s.listFn(ctx, actor)
}

func (s *stubReimbursementService) ListPending(ctx context.Context, actor ports.Actor) ([]*domain.Reimbursement, error) {
	return s.listFn(ctx, actor)
}

func (s *stubReimbursementService) ListAll(ctx context.Context, actor ports.Actor) ([]*domain.Reimbursement, error) {
	return s.listFn(ctx, actor)
}

func (s *stubReimbursementService) Decide(ctx context.Context, actor ports.Actor, in ports.DecisionInput) (*domain.Reimbursement, error) {
	return s.decideFn(ctx, actor, in)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func authenticate(c echo.Context, userID, role string) {
	c.Set(middleware.ContextUserID, userID)
	c.Set(middleware.ContextRole, role)
	c.Set(middleware.ContextClaims, ports.Claims{UserID: userID, Role: role, TokenID: "jti-" + userID})
}
