package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/expenseflow/reimbursement/internal/core/domain"
	"github.com/expenseflow/reimbursement/internal/core/ports"
)

type ReimbursementService struct {
	repo   ports.ReimbursementRepository
	users  ports.UserRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewReimbursementService(repo ports.ReimbursementRepository, users ports.UserRepository, logger zerolog.Logger) *ReimbursementService {
	return &ReimbursementService{repo: repo, users: users, logger: logger, now: time.Now}
}

// Create files a new pending request on behalf of actor.
func (s *ReimbursementService) Create(ctx context.Context, actor ports.Actor, in ports.CreateReimbursementInput) (*domain.Reimbursement, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrTitleRequired
	}
	if in.Amount < 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return nil, domain.ErrInvalidAmount
	}

	requester, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("create reimbursement: %w", err)
	}

	now := s.now().UTC()
	r := &domain.Reimbursement{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Status:      domain.StatusPending,
		Requester:   requester.Ref(),
		Approvals:   []domain.Approval{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		s.logger.Error().Err(err).Msg("failed to create reimbursement")
		return nil, err
	}

	s.logger.Info().Str("reimbursement_id", r.ID).Str("requester_id", actor.UserID).Msg("reimbursement created")
	return r, nil
}

// Get returns a single request. Requesters see their own; approvers see all.
func (s *ReimbursementService) Get(ctx context.Context, actor ports.Actor, id string) (*domain.Reimbursement, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Requester.ID != actor.UserID && !domain.CanApprove(actor.Role) {
		return nil, domain.ErrForbidden
	}
	return r, nil
}

func (s *ReimbursementService) ListMine(ctx context.Context, actor ports.Actor) ([]*domain.Reimbursement, error) {
	return s.repo.List(ctx, ports.ListReimbursementsFilter{RequesterID: actor.UserID})
}

func (s *ReimbursementService) ListPending(ctx context.Context, actor ports.Actor) ([]*domain.Reimbursement, error) {
	if !domain.CanApprove(actor.Role) {
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, ports.ListReimbursementsFilter{Status: domain.StatusPending})
}

func (s *ReimbursementService) ListAll(ctx context.Context, actor ports.Actor) ([]*domain.Reimbursement, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, ports.ListReimbursementsFilter{})
}

// Decide applies an approve or reject action. Only pending requests can be
// decided; rejecting requires non-blank comments.
func (s *ReimbursementService) Decide(ctx context.Context, actor ports.Actor, in ports.DecisionInput) (*domain.Reimbursement, error) {
	if !domain.CanApprove(actor.Role) {
		return nil, domain.ErrForbidden
	}
	comments := strings.TrimSpace(in.Comments)
	if in.Status == domain.StatusRejected && comments == "" {
		return nil, domain.ErrCommentsRequired
	}

	current, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("decide: %w", err)
	}
	if !current.Status.CanTransitionTo(in.Status) {
		return nil, fmt.Errorf("decide: %w (from %s to %s)", domain.ErrInvalidTransition, current.Status, in.Status)
	}

	approver, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("decide: %w", err)
	}

	approval := domain.Approval{
		ID:         uuid.NewString(),
		Approver:   approver.Ref(),
		Status:     in.Status,
		Comments:   comments,
		ApprovedAt: s.now().UTC(),
	}

	updated, err := s.repo.Decide(ctx, in.ID, approval)
	if err != nil {
		if errors.Is(err, domain.ErrConcurrentDecision) {
			return nil, fmt.Errorf("decide: %w (already decided)", domain.ErrInvalidTransition)
		}
		return nil, fmt.Errorf("decide: %w", err)
	}

	s.logger.Info().
		Str("reimbursement_id", in.ID).
		Str("status", string(in.Status)).
		Str("approver_id", actor.UserID).
		Msg("reimbursement decided")

	return updated, nil
}
