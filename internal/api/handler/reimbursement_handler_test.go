package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/expenseflow/reimbursement/internal/core/domain"
	"github.com/expenseflow/reimbursement/internal/core/ports"
)

func TestReimbursementHandler_Create(t *testing.T) {
	e := newEcho()
	handler := NewReimbursementHandler(&stubReimbursementService{
		createFn: func(ctx context.Context, actor ports.Actor, in ports.CreateReimbursementInput) (*domain.Reimbursement, error) {
			if actor.UserID != "u1" || in.Amount != 12.5 || in.Title != "Lunch" {
				t.Fatalf("unexpected call: %+v %+v", actor, in)
			}
			return &domain.Reimbursement{ID: "r1", Title: in.Title, Amount: in.Amount, Status: domain.StatusPending}, nil
		},
	})

	c, rec := newJSONContext(e, http.MethodPost, "/reimbursements", `{"title":"Lunch","amount":12.5}`)
	authenticate(c, "u1", domain.RoleEmployee)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp reimbursementEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Reimbursement == nil || resp.Reimbursement.ID != "r1" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestReimbursementHandler_Create_MissingAmount(t *testing.T) {
	e := newEcho()
	handler := NewReimbursementHandler(&stubReimbursementService{})

	c, _ := newJSONContext(e, http.MethodPost, "/reimbursements", `{"title":"Lunch"}`)
	authenticate(c, "u1", domain.RoleEmployee)

	var he *echo.HTTPError
	if err := handler.Create(c); !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestReimbursementHandler_Create_NegativeAmount(t *testing.T) {
	e := newEcho()
	handler := NewReimbursementHandler(&stubReimbursementService{})

	c, _ := newJSONContext(e, http.MethodPost, "/reimbursements", `{"title":"Lunch","amount":-1}`)
	authenticate(c, "u1", domain.RoleEmployee)

	var he *echo.HTTPError
	if err := handler.Create(c); !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestReimbursementHandler_List_EmptyIsArray(t *testing.T) {
	e := newEcho()
	handler := NewReimbursementHandler(&stubReimbursementService{
		listFn: func(context.Context, ports.Actor) ([]*domain.Reimbursement, error) {
			return nil, nil
		},
	})

	c, rec := newJSONContext(e, http.MethodGet, "/reimbursements", "")
	authenticate(c, "u1", domain.RoleEmployee)

	if err := handler.ListMine(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := rec.Body.String(); got != "{\"reimbursements\":[]}\n" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestReimbursementHandler_Reject_ForwardsComments(t *testing.T) {
	e := newEcho()
	handler := NewReimbursementHandler(&stubReimbursementService{
		decideFn: func(ctx context.Context, actor ports.Actor, in ports.DecisionInput) (*domain.Reimbursement, error) {
			if in.ID != "r1" || in.Status != domain.StatusRejected || in.Comments != "no receipt" {
				t.Fatalf("unexpected decision: %+v", in)
			}
			return &domain.Reimbursement{ID: "r1", Status: domain.StatusRejected}, nil
		},
	})

	c, rec := newJSONContext(e, http.MethodPut, "/reimbursements/r1/reject", `{"comments":"no receipt"}`)
	c.SetParamNames("id")
	c.SetParamValues("r1")
	authenticate(c, "m1", domain.RoleManager)

	if err := handler.Reject(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReimbursementHandler_Approve_NoBody(t *testing.T) {
	e := newEcho()
	handler := NewReimbursementHandler(&stubReimbursementService{
		decideFn: func(ctx context.Context, actor ports.Actor, in ports.DecisionInput) (*domain.Reimbursement, error) {
			if in.Comments != "" || in.Status != domain.StatusApproved {
				t.Fatalf("unexpected decision: %+v", in)
			}
			return &domain.Reimbursement{ID: in.ID, Status: domain.StatusApproved}, nil
		},
	})

	c, rec := newJSONContext(e, http.MethodPut, "/reimbursements/r1/approve", "")
	c.SetParamNames("id")
	c.SetParamValues("r1")
	authenticate(c, "m1", domain.RoleManager)

	if err := handler.Approve(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReimbursementHandler_Decide_ErrorPassesThrough(t *testing.T) {
	e := newEcho()
	handler := NewReimbursementHandler(&stubReimbursementService{
		decideFn: func(context.Context, ports.Actor, ports.DecisionInput) (*domain.Reimbursement, error) {
			return nil, domain.ErrInvalidTransition
		},
	})

	c, _ := newJSONContext(e, http.MethodPut, "/reimbursements/r1/approve", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("r1")
	authenticate(c, "m1", domain.RoleManager)

	if err := handler.Approve(c); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestReimbursementHandler_Unauthenticated(t *testing.T) {
	e := newEcho()
	handler := NewReimbursementHandler(&stubReimbursementService{})

	c, _ := newJSONContext(e, http.MethodGet, "/reimbursements", "")
	var he *echo.HTTPError
	if err := handler.ListMine(c); !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
