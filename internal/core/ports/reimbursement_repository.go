package ports

import (
	"context"

	"github.com/expenseflow/reimbursement/internal/core/domain"
)

// ListReimbursementsFilter selects reimbursements for the list endpoints.
// Empty fields mean no filter.
type ListReimbursementsFilter struct {
	RequesterID string
	Status      domain.ReimbursementStatus
}

// ReimbursementRepository defines persistence operations for reimbursements.
type ReimbursementRepository interface {
	Create(ctx context.Context, r *domain.Reimbursement) error
	FindByID(ctx context.Context, id string) (*domain.Reimbursement, error)
	// List returns matching requests, newest first.
	List(ctx context.Context, filter ListReimbursementsFilter) ([]*domain.Reimbursement, error)
	// Decide atomically moves a pending request to approval.Status and
	// appends approval to its history. It returns ErrConcurrentDecision when
	// the request is no longer pending at write time.
	Decide(ctx context.Context, id string, approval domain.Approval) (*domain.Reimbursement, error)
}
