package model

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Status represents the lifecycle state of a reimbursement request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// validTransitions defines the approval state machine. Approved and rejected
// are terminal.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusApproved, StatusRejected},
}

var ErrInvalidAmount = errors.New("amount must be a non-negative number")

// CanTransitionTo reports whether a transition from s to next is valid.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Approval is one approve or reject decision recorded on a request.
type Approval struct {
	ID         string    `json:"id"`
	Approver   *Identity `json:"approver,omitempty"`
	Status     Status    `json:"status"`
	Comments   string    `json:"comments,omitempty"`
	ApprovedAt time.Time `json:"approved_at"`
}

// Reimbursement is an expense claim moving through the approval lifecycle.
type Reimbursement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Amount      float64    `json:"amount"`
	Status      Status     `json:"status"`
	Requester   *Identity  `json:"user,omitempty"`
	Approvals   []Approval `json:"approvals,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ParseAmount converts user input into a finite, non-negative amount.
func ParseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if err := ValidateAmount(v); err != nil {
		return 0, err
	}
	return v, nil
}

// ValidateAmount rejects negative, NaN and infinite amounts.
func ValidateAmount(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Summary aggregates a list of requests the way the admin overview shows it.
type Summary struct {
	Total          int
	Pending        int
	Approved       int
	Rejected       int
	ApprovedAmount float64
}

// Summarize computes counts per status and the sum of approved amounts.
func Summarize(items []Reimbursement) Summary {
	var s Summary
	for _, r := range items {
		s.Total++
		switch r.Status {
		case StatusPending:
			s.Pending++
		case StatusApproved:
			s.Approved++
			s.ApprovedAmount += r.Amount
		case StatusRejected:
			s.Rejected++
		}
	}
	return s
}

// FilterByStatus returns the requests in status; an empty status keeps all.
func FilterByStatus(items []Reimbursement, status Status) []Reimbursement {
	if status == "" {
		return items
	}
	out := make([]Reimbursement, 0, len(items))
	for _, r := range items {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}
