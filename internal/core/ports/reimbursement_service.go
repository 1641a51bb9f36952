package ports

import (
	"context"

	"github.com/expenseflow/reimbursement/internal/core/domain"
)

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   string
}

// CreateReimbursementInput carries data for a new request. The requester is
// always the calling actor.
type CreateReimbursementInput struct {
	Title       string
	Description string
	Amount      float64
}

// DecisionInput carries an approve or reject action.
type DecisionInput struct {
	ID       string
	Status   domain.ReimbursementStatus
	Comments string
}

// ReimbursementService defines use-case operations for the approval lifecycle.
type ReimbursementService interface {
	Create(ctx context.Context, actor Actor, in CreateReimbursementInput) (*domain.Reimbursement, error)
	Get(ctx context.Context, actor Actor, id string) (*domain.Reimbursement, error)
	ListMine(ctx context.Context, actor Actor) ([]*domain.Reimbursement, error)
	ListPending(ctx context.Context, actor Actor) ([]*domain.Reimbursement, error)
	ListAll(ctx context.Context, actor Actor) ([]*domain.Reimbursement, error)
	Decide(ctx context.Context, actor Actor, in DecisionInput) (*domain.Reimbursement, error)
}

// UserInput carries admin-managed profile data.
type UserInput struct {
	Name     string
	Email    string
	Password string // create only
	Role     string
}

// UserService defines admin operations on user accounts.
type UserService interface {
	Create(ctx context.Context, in UserInput) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, id string, in UserInput) (*domain.User, error)
	Delete(ctx context.Context, actor Actor, id string) error
	// EnsureAdmin creates an admin account when no user has email.
	EnsureAdmin(ctx context.Context, in UserInput) error
}
