package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/expenseflow/reimbursement/internal/core/domain"
	"github.com/expenseflow/reimbursement/internal/core/ports"
)

// ErrSelfDelete prevents an admin from deleting the account they are using.
var ErrSelfDelete = domain.ErrSelfDelete

// UserService implements admin user management.
type UserService struct {
	repo ports.UserRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewUserService(repo ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, log: log, now: time.Now}
}

func (s *UserService) Create(ctx context.Context, in ports.UserInput) (*domain.User, error) {
	if !domain.ValidRole(in.Role) {
		return nil, domain.ErrInvalidRole
	}
	email := normalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user created")
	return created, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// Update changes name, email and role. Password is out of reach here.
func (s *UserService) Update(ctx context.Context, id string, in ports.UserInput) (*domain.User, error) {
	if !domain.ValidRole(in.Role) {
		return nil, domain.ErrInvalidRole
	}
	email := normalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || email == "" {
		return nil, domain.ErrInvalidCredentials
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Name = strings.TrimSpace(in.Name)
	existing.Email = email
	existing.Role = in.Role
	existing.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", id).Str("role", updated.Role).Msg("user updated")
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, actor ports.Actor, id string) error {
	if actor.UserID == id {
		return ErrSelfDelete
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Str("deleted_by", actor.UserID).Msg("user deleted")
	return nil
}

func (s *UserService) EnsureAdmin(ctx context.Context, in ports.UserInput) error {
	if in.Email == "" {
		return nil
	}
	_, err := s.repo.FindByEmail(ctx, normalizeEmail(in.Email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("ensure admin: %w", err)
	}
	in.Role = domain.RoleAdmin
	if _, err := s.Create(ctx, in); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	return nil
}
