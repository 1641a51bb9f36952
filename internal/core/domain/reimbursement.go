package domain

import (
	"errors"
	"time"
)

// ReimbursementStatus represents the lifecycle state of a reimbursement request.
type ReimbursementStatus string

const (
	StatusPending  ReimbursementStatus = "pending"
	StatusApproved ReimbursementStatus = "approved"
	StatusRejected ReimbursementStatus = "rejected"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[ReimbursementStatus][]ReimbursementStatus{
	StatusPending: {StatusApproved, StatusRejected},
}

var (
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrReimbursementNotFound = errors.New("reimbursement not found")
	ErrForbidden             = errors.New("access forbidden")
	ErrCommentsRequired      = errors.New("comments are required when rejecting")
	ErrInvalidAmount         = errors.New("amount must be a non-negative number")
	ErrTitleRequired         = errors.New("title is required")
	ErrConcurrentDecision    = errors.New("reimbursement was decided concurrently")
)

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s ReimbursementStatus) CanTransitionTo(next ReimbursementStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Approval records a single approve or reject decision.
type Approval struct {
	ID         string              `json:"id" bson:"id"`
	Approver   UserRef             `json:"approver" bson:"approver"`
	Status     ReimbursementStatus `json:"status" bson:"status"`
	Comments   string              `json:"comments,omitempty" bson:"comments,omitempty"`
	ApprovedAt time.Time           `json:"approved_at" bson:"approved_at"`
}

// Reimbursement is the core aggregate root. Approvals is append-only and
// ordered by ApprovedAt.
type Reimbursement struct {
	ID          string              `json:"id" bson:"_id,omitempty"`
	Title       string              `json:"title" bson:"title"`
	Description string              `json:"description,omitempty" bson:"description,omitempty"`
	Amount      float64             `json:"amount" bson:"amount"`
	Status      ReimbursementStatus `json:"status" bson:"status"`
	Requester   UserRef             `json:"user" bson:"requester"`
	Approvals   []Approval          `json:"approvals" bson:"approvals"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" bson:"updated_at"`
}
