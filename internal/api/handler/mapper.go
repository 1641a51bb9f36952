package handler

import "github.com/expenseflow/reimbursement/internal/core/domain"

// --- Service result → HTTP response ---

func toUserResponse(u *domain.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC(),
	}
}

func toUserList(users []*domain.User) []*userResponse {
	out := make([]*userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

// nonNilList keeps empty lists encoded as [] rather than null.
func nonNilList(items []*domain.Reimbursement) []*domain.Reimbursement {
	if items == nil {
		return []*domain.Reimbursement{}
	}
	return items
}
