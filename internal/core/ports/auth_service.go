package ports

import (
	"context"
	"time"

	"github.com/expenseflow/reimbursement/internal/core/domain"
)

// RegisterInput carries self-service registration data.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string // optional, defaults to employee
}

// Claims is the authenticated principal extracted from a bearer token.
type Claims struct {
	UserID    string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// Authenticate validates a bearer token and returns its claims.
	Authenticate(ctx context.Context, token string) (*Claims, error)
	// Logout revokes the token identified by claims.
	Logout(ctx context.Context, claims Claims) error
}
