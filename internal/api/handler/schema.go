package handler

import (
	"time"

	"github.com/expenseflow/reimbursement/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"     validate:"omitempty,oneof=employee manager admin"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type authResponse struct {
	Token string        `json:"token,omitempty"`
	User  *userResponse `json:"user,omitempty"`
}

// --- Reimbursements ---

type createReimbursementRequest struct {
	Title       string   `json:"title"       validate:"required,max=255"`
	Description string   `json:"description" validate:"max=2000"`
	Amount      *float64 `json:"amount"      validate:"required,gte=0"`
}

type decisionRequest struct {
	Comments string `json:"comments"`
}

type reimbursementEnvelope struct {
	Reimbursement *domain.Reimbursement `json:"reimbursement"`
}

type reimbursementListEnvelope struct {
	Reimbursements []*domain.Reimbursement `json:"reimbursements"`
}

// --- Users ---

type createUserRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"     validate:"required,oneof=employee manager admin"`
}

type updateUserRequest struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"  validate:"required,oneof=employee manager admin"`
}

type userEnvelope struct {
	User *userResponse `json:"user"`
}

type userListEnvelope struct {
	Users []*userResponse `json:"users"`
}
