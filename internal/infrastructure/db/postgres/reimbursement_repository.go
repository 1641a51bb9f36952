package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expenseflow/reimbursement/internal/core/domain"
	"github.com/expenseflow/reimbursement/internal/core/ports"
)

const reimbursementColumns = `id, title, description, amount::float8, status,
	requester_id, requester_name, requester_email, requester_role, created_at, updated_at`

// ReimbursementRepository implements ports.ReimbursementRepository backed by PostgreSQL.
type ReimbursementRepository struct {
	pool *pgxpool.Pool
}

func NewReimbursementRepository(pool *pgxpool.Pool) *ReimbursementRepository {
	return &ReimbursementRepository{pool: pool}
}

func scanReimbursement(row pgx.Row) (*domain.Reimbursement, error) {
	var rb domain.Reimbursement
	var status string
	err := row.Scan(&rb.ID, &rb.Title, &rb.Description, &rb.Amount, &status,
		&rb.Requester.ID, &rb.Requester.Name, &rb.Requester.Email, &rb.Requester.Role,
		&rb.CreatedAt, &rb.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rb.Status = domain.ReimbursementStatus(status)
	rb.CreatedAt = rb.CreatedAt.UTC()
	rb.UpdatedAt = rb.UpdatedAt.UTC()
	rb.Approvals = []domain.Approval{}
	return &rb, nil
}

func (r *ReimbursementRepository) Create(ctx context.Context, rb *domain.Reimbursement) error {
	const insertSQL = `
		INSERT INTO reimbursements (id, title, description, amount, status,
			requester_id, requester_name, requester_email, requester_role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, insertSQL, id, rb.Title, rb.Description, rb.Amount, string(rb.Status),
		rb.Requester.ID, rb.Requester.Name, rb.Requester.Email, rb.Requester.Role, rb.CreatedAt, rb.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create reimbursement: %w", err)
	}
	rb.ID = id
	return nil
}

func (r *ReimbursementRepository) FindByID(ctx context.Context, id string) (*domain.Reimbursement, error) {
	return r.findByID(ctx, r.pool, id)
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *ReimbursementRepository) findByID(ctx context.Context, q queryer, id string) (*domain.Reimbursement, error) {
	rb, err := scanReimbursement(q.QueryRow(ctx, `SELECT `+reimbursementColumns+` FROM reimbursements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReimbursementNotFound
		}
		return nil, fmt.Errorf("postgres: find reimbursement: %w", err)
	}
	if err := loadApprovals(ctx, q, []*domain.Reimbursement{rb}); err != nil {
		return nil, err
	}
	return rb, nil
}

func (r *ReimbursementRepository) List(ctx context.Context, f ports.ListReimbursementsFilter) ([]*domain.Reimbursement, error) {
	var (
		where []string
		args  []any
	)
	if f.RequesterID != "" {
		args = append(args, f.RequesterID)
		where = append(where, fmt.Sprintf("requester_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + reimbursementColumns + ` FROM reimbursements`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list reimbursements: %w", err)
	}
	defer rows.Close()

	var out []*domain.Reimbursement
	for rows.Next() {
		rb, err := scanReimbursement(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan reimbursement: %w", err)
		}
		out = append(out, rb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := loadApprovals(ctx, r.pool, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadApprovals attaches approval history, oldest first, to each item.
func loadApprovals(ctx context.Context, q queryer, items []*domain.Reimbursement) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Reimbursement, len(items))
	ids := make([]string, 0, len(items))
	for _, rb := range items {
		byID[rb.ID] = rb
		ids = append(ids, rb.ID)
	}

	const selectSQL = `
		SELECT id, reimbursement_id, approver_id, approver_name, approver_email, approver_role,
			status, comments, approved_at
		FROM approvals
		WHERE reimbursement_id = ANY($1)
		ORDER BY approved_at, id
	`
	rows, err := q.Query(ctx, selectSQL, ids)
	if err != nil {
		return fmt.Errorf("postgres: load approvals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a      domain.Approval
			owner  string
			status string
		)
		if err := rows.Scan(&a.ID, &owner, &a.Approver.ID, &a.Approver.Name, &a.Approver.Email, &a.Approver.Role,
			&status, &a.Comments, &a.ApprovedAt); err != nil {
			return fmt.Errorf("postgres: scan approval: %w", err)
		}
		a.Status = domain.ReimbursementStatus(status)
		a.ApprovedAt = a.ApprovedAt.UTC()
		if rb, ok := byID[owner]; ok {
			rb.Approvals = append(rb.Approvals, a)
		}
	}
	return rows.Err()
}

// Decide moves a pending request and appends its approval record in one
// transaction. The status guard in the UPDATE makes a concurrent decision lose.
func (r *ReimbursementRepository) Decide(ctx context.Context, id string, a domain.Approval) (*domain.Reimbursement, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE reimbursements SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'pending'`,
		id, string(a.Status), a.ApprovedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.findByID(ctx, tx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrConcurrentDecision
	}

	const insertSQL = `
		INSERT INTO approvals (id, reimbursement_id, approver_id, approver_name, approver_email, approver_role,
			status, comments, approved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.Exec(ctx, insertSQL, a.ID, id, a.Approver.ID, a.Approver.Name, a.Approver.Email, a.Approver.Role,
		string(a.Status), a.Comments, a.ApprovedAt); err != nil {
		return nil, fmt.Errorf("postgres: insert approval: %w", err)
	}

	updated, err := r.findByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: commit: %w", err)
	}
	return updated, nil
}
