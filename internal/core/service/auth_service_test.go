package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/expenseflow/reimbursement/internal/core/domain"
	"github.com/expenseflow/reimbursement/internal/core/ports"
)

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, nil, "secret", time.Hour, discardLogger)

	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Alice", Email: " Alice@Example.com ", Password: "pass123",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalised email, got %q", user.Email)
	}
	if user.Role != domain.RoleEmployee {
		t.Fatalf("expected default employee role, got %s", user.Role)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), nil, "secret", time.Hour, discardLogger)

	if _, err := svc.Register(context.Background(), ports.RegisterInput{Email: "x@example.com", Password: "p"}); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for missing name, got %v", err)
	}
	if _, err := svc.Register(context.Background(), ports.RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "p", Role: "owner"}); err != domain.ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), nil, "secret", time.Hour, discardLogger)
	in := ports.RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "pass"}

	_, _ = svc.Register(context.Background(), in)
	if _, err := svc.Register(context.Background(), in); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_IssuesVerifiableToken(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), nil, "secret", time.Hour, discardLogger)
	if _, err := svc.Register(context.Background(), ports.RegisterInput{Name: "Carol", Email: "carol@example.com", Password: "s3cret", Role: domain.RoleManager}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Name != "Carol" {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["role"] != domain.RoleManager || claims["sub"] != user.ID || claims["jti"] == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	got, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.UserID != user.ID || got.Role != domain.RoleManager {
		t.Fatalf("unexpected claims: %+v", got)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), nil, "secret", time.Hour, discardLogger)
	_, _ = svc.Register(context.Background(), ports.RegisterInput{Name: "Dave", Email: "dave@example.com", Password: "goodpass"})

	if _, _, err := svc.Login(context.Background(), "dave@example.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownUserLooksLikeBadPassword(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), nil, "secret", time.Hour, discardLogger)

	if _, _, err := svc.Login(context.Background(), "ghost@example.com", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Authenticate_Expired(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, nil, "secret", time.Minute, discardLogger)
	_, _ = svc.Register(context.Background(), ports.RegisterInput{Name: "Eve", Email: "eve@example.com", Password: "pw"})
	token, _, err := svc.Login(context.Background(), "eve@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_Authenticate_UsesStoredRole(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, nil, "secret", time.Hour, discardLogger)
	user, _ := svc.Register(context.Background(), ports.RegisterInput{Name: "Finn", Email: "finn@example.com", Password: "pw"})
	token, _, _ := svc.Login(context.Background(), "finn@example.com", "pw")

	repo.users[user.ID].Role = domain.RoleAdmin
	claims, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if claims.Role != domain.RoleAdmin {
		t.Fatalf("expected stored role admin, got %s", claims.Role)
	}

	delete(repo.users, user.ID)
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for deleted user, got %v", err)
	}
}

func TestAuthService_Logout_RevokesToken(t *testing.T) {
	revoker := &stubRevoker{}
	svc := NewAuthService(newStubUserRepo(), revoker, "secret", time.Hour, discardLogger)
	_, _ = svc.Register(context.Background(), ports.RegisterInput{Name: "Gil", Email: "gil@example.com", Password: "pw"})
	token, _, _ := svc.Login(context.Background(), "gil@example.com", "pw")

	claims, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := svc.Logout(context.Background(), *claims); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ttl := revoker.revoked[claims.TokenID]; ttl <= 0 || ttl > time.Hour {
		t.Fatalf("unexpected revocation ttl %v", ttl)
	}
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
}

func TestAuthService_Authenticate_RevokerOutageAcceptsToken(t *testing.T) {
	revoker := &stubRevoker{err: errors.New("redis down")}
	svc := NewAuthService(newStubUserRepo(), revoker, "secret", time.Hour, discardLogger)
	_, _ = svc.Register(context.Background(), ports.RegisterInput{Name: "Hal", Email: "hal@example.com", Password: "pw"})
	token, _, _ := svc.Login(context.Background(), "hal@example.com", "pw")

	if _, err := svc.Authenticate(context.Background(), token); err != nil {
		t.Fatalf("expected token accepted during outage, got %v", err)
	}
}
