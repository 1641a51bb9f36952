// Package memory provides process-local repositories. They back the API in
// development and the end-to-end client tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/expenseflow/reimbursement/internal/core/domain"
	"github.com/expenseflow/reimbursement/internal/core/ports"
)

// UserRepository implements ports.UserRepository.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	stored := *user
	stored.ID = uuid.NewString()
	r.users[stored.ID] = stored
	return &stored, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

// List returns users oldest first.
func (r *UserRepository) List(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	for id, u := range r.users {
		if id != user.ID && u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	existing.Name = user.Name
	existing.Email = user.Email
	existing.Role = user.Role
	existing.UpdatedAt = user.UpdatedAt
	r.users[user.ID] = existing
	return &existing, nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// ReimbursementRepository implements ports.ReimbursementRepository.
type ReimbursementRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Reimbursement
}

func NewReimbursementRepository() *ReimbursementRepository {
	return &ReimbursementRepository{items: make(map[string]*domain.Reimbursement)}
}

func clone(r *domain.Reimbursement) *domain.Reimbursement {
	c := *r
	c.Approvals = append([]domain.Approval{}, r.Approvals...)
	return &c
}

func (r *ReimbursementRepository) Create(_ context.Context, rb *domain.Reimbursement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rb.ID = uuid.NewString()
	r.items[rb.ID] = clone(rb)
	return nil
}

func (r *ReimbursementRepository) FindByID(_ context.Context, id string) (*domain.Reimbursement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rb, ok := r.items[id]
	if !ok {
		return nil, domain.ErrReimbursementNotFound
	}
	return clone(rb), nil
}

func (r *ReimbursementRepository) List(_ context.Context, f ports.ListReimbursementsFilter) ([]*domain.Reimbursement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Reimbursement, 0, len(r.items))
	for _, rb := range r.items {
		if f.RequesterID != "" && rb.Requester.ID != f.RequesterID {
			continue
		}
		if f.Status != "" && rb.Status != f.Status {
			continue
		}
		out = append(out, clone(rb))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Decide checks the pending state and writes under the same lock, so two
// concurrent decisions on one request cannot both succeed.
func (r *ReimbursementRepository) Decide(_ context.Context, id string, a domain.Approval) (*domain.Reimbursement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rb, ok := r.items[id]
	if !ok {
		return nil, domain.ErrReimbursementNotFound
	}
	if rb.Status != domain.StatusPending {
		return nil, domain.ErrConcurrentDecision
	}
	rb.Status = a.Status
	rb.Approvals = append(rb.Approvals, a)
	rb.UpdatedAt = a.ApprovedAt
	return clone(rb), nil
}
