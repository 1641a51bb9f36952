package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/expenseflow/reimbursement/internal/core/domain"
	"github.com/expenseflow/reimbursement/internal/core/ports"
)

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Name != "Alice" || in.Email != "alice@example.com" || in.Role != "" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u1", Name: in.Name, Email: in.Email, Role: domain.RoleEmployee, PasswordHash: "hash"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret1"}`)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if _, ok := resp["token"]; ok {
		t.Fatalf("register must not issue a token")
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["email"] != "alice@example.com" || user["role"] != "employee" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash leaked")
	}
}

func TestAuthHandler_Register_ValidationError(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	})

	c, _ := newJSONContext(e, http.MethodPost, "/auth/register", `{"name":"Bob","email":"not-an-email","password":"secret1"}`)
	err := handler.Register(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
	if msg, _ := he.Message.(string); msg != "email must be a valid email" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	})

	c, _ := newJSONContext(e, http.MethodPost, "/auth/register", `{"name":"Bob","email":"bob@example.com","password":"secret1"}`)
	if err := handler.Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists to reach the error handler, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			return "jwt-token", &domain.User{ID: "u1", Name: "Alice", Email: email, Role: domain.RoleManager}, nil
		},
	})

	c, rec := newJSONContext(e, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"secret"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "jwt-token" || resp.User == nil || resp.User.Role != domain.RoleManager {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(context.Context, string, string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	})

	c, _ := newJSONContext(e, http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"wrong"}`)
	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Logout_PassesClaims(t *testing.T) {
	e := newEcho()
	var got ports.Claims
	handler := NewAuthHandler(&stubAuthService{
		logoutFn: func(ctx context.Context, claims ports.Claims) error {
			got = claims
			return nil
		},
	})

	c, rec := newJSONContext(e, http.MethodPost, "/auth/logout", "")
	authenticate(c, "u1", domain.RoleEmployee)

	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.TokenID != "jti-u1" {
		t.Fatalf("claims not forwarded: %+v", got)
	}
}
