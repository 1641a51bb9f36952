// Package apitest runs the reimbursement API on in-memory storage for tests
// that need a real HTTP peer.
package apitest

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/expenseflow/reimbursement/internal/api"
	"github.com/expenseflow/reimbursement/internal/core/domain"
	"github.com/expenseflow/reimbursement/internal/core/ports"
	"github.com/expenseflow/reimbursement/internal/core/service"
	"github.com/expenseflow/reimbursement/internal/infrastructure/db/memory"
)

const jwtSecret = "apitest-secret"

// Server is a started httptest server. URL already includes the /api/v1 prefix.
type Server struct {
	HTTP  *httptest.Server
	URL   string
	Auth  *service.AuthService
	Users *service.UserService
}

// NewServer starts a server and closes it when t finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()

	log := zerolog.Nop()
	userRepo := memory.NewUserRepository()
	reimbursementRepo := memory.NewReimbursementRepository()

	authSvc := service.NewAuthService(userRepo, nil, jwtSecret, time.Hour, log)
	userSvc := service.NewUserService(userRepo, log)
	reimbursementSvc := service.NewReimbursementService(reimbursementRepo, userRepo, log)

	e := api.NewRouter(api.Dependencies{
		Auth:           authSvc,
		Reimbursements: reimbursementSvc,
		Users:          userSvc,
		Logger:         log,
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return &Server{
		HTTP:  srv,
		URL:   srv.URL + api.BasePath,
		Auth:  authSvc,
		Users: userSvc,
	}
}

// SeedUser creates an account directly through the user service.
func (s *Server) SeedUser(t testing.TB, name, email, password, role string) *domain.User {
	t.Helper()
	u, err := s.Users.Create(context.Background(), ports.UserInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

// Token logs in directly and returns a bearer token.
func (s *Server) Token(t testing.TB, email, password string) string {
	t.Helper()
	token, _, err := s.Auth.Login(context.Background(), email, password)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return token
}
