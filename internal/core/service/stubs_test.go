package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/expenseflow/reimbursement/internal/core/domain"
	"github.com/expenseflow/reimbursement/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("u%d", r.nextID)
	r.users[copy.ID] = copy
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	existing, ok := r.users[user.ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	existing.Name, existing.Email, existing.Role, existing.UpdatedAt = user.Name, user.Email, user.Role, user.UpdatedAt
	return cloneUser(existing), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type stubReimbursementRepo struct {
	byID      map[string]*domain.Reimbursement
	nextID    int
	createErr error
	// decideStale simulates another approver winning the race.
	decideStale bool
}

func newStubReimbursementRepo() *stubReimbursementRepo {
	return &stubReimbursementRepo{byID: make(map[string]*domain.Reimbursement)}
}

func cloneReimbursement(r *domain.Reimbursement) *domain.Reimbursement {
	clone := *r
	clone.Approvals = append([]domain.Approval(nil), r.Approvals...)
	return &clone
}

func (r *stubReimbursementRepo) Create(_ context.Context, rb *domain.Reimbursement) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	rb.ID = fmt.Sprintf("r%d", r.nextID)
	r.byID[rb.ID] = cloneReimbursement(rb)
	return nil
}

func (r *stubReimbursementRepo) FindByID(_ context.Context, id string) (*domain.Reimbursement, error) {
	rb, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrReimbursementNotFound
	}
	return cloneReimbursement(rb), nil
}

func (r *stubReimbursementRepo) List(_ context.Context, f ports.ListReimbursementsFilter) ([]*domain.Reimbursement, error) {
	var out []*domain.Reimbursement
	for _, rb := range r.byID {
		if f.RequesterID != "" && rb.Requester.ID != f.RequesterID {
			continue
		}
		if f.Status != "" && rb.Status != f.Status {
			continue
		}
		out = append(out, cloneReimbursement(rb))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *stubReimbursementRepo) Decide(_ context.Context, id string, a domain.Approval) (*domain.Reimbursement, error) {
	rb, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrReimbursementNotFound
	}
	if r.decideStale || rb.Status != domain.StatusPending {
		return nil, domain.ErrConcurrentDecision
	}
	rb.Status = a.Status
	rb.Approvals = append(rb.Approvals, a)
	rb.UpdatedAt = a.ApprovedAt
	return cloneReimbursement(rb), nil
}

type stubRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func (s *stubRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.revoked == nil {
		s.revoked = make(map[string]time.Duration)
	}
	s.revoked[id] = ttl
	return nil
}

func (s *stubRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.revoked[id]
	return ok, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

func seedUser(repo *stubUserRepo, name, role string) *domain.User {
	u, err := repo.Create(context.Background(), &domain.User{
		Name:  name,
		Email: name + "@example.com",
		Role:  role,
	})
	if err != nil {
		panic(err)
	}
	return u
}

func actorOf(u *domain.User) ports.Actor {
	return ports.Actor{UserID: u.ID, Role: u.Role}
}
