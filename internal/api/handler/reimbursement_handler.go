package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expenseflow/reimbursement/internal/api/metrics"
	"github.com/expenseflow/reimbursement/internal/core/domain"
	"github.com/expenseflow/reimbursement/internal/core/ports"
)

// ReimbursementHandler handles HTTP requests for the approval lifecycle.
type ReimbursementHandler struct {
	service ports.ReimbursementService
}

func NewReimbursementHandler(service ports.ReimbursementService) *ReimbursementHandler {
	return &ReimbursementHandler{service: service}
}

// Create handles POST /reimbursements.
//
// @Summary      Submit a reimbursement request
// @Tags         reimbursements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createReimbursementRequest  true  "Request details"
// @Success      201   {object}  reimbursementEnvelope
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /reimbursements [post]
func (h *ReimbursementHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createReimbursementRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	created, err := h.service.Create(c.Request().Context(), actor, ports.CreateReimbursementInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      *req.Amount,
	})
	if err != nil {
		return err
	}

	metrics.ReimbursementsCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, reimbursementEnvelope{Reimbursement: created})
}

// ListMine handles GET /reimbursements.
//
// @Summary      List the caller's own requests
// @Tags         reimbursements
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  reimbursementListEnvelope
// @Failure      401  {object}  errorResponse
// @Router       /reimbursements [get]
func (h *ReimbursementHandler) ListMine(c echo.Context) error {
	return h.list(c, h.service.ListMine)
}

// ListPending handles GET /reimbursements/pending.
//
// @Summary      List requests awaiting a decision
// @Tags         reimbursements
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  reimbursementListEnvelope
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /reimbursements/pending [get]
func (h *ReimbursementHandler) ListPending(c echo.Context) error {
	return h.list(c, h.service.ListPending)
}

// ListAll handles GET /reimbursements/all.
//
// @Summary      List every request
// @Tags         reimbursements
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  reimbursementListEnvelope
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /reimbursements/all [get]
func (h *ReimbursementHandler) ListAll(c echo.Context) error {
	return h.list(c, h.service.ListAll)
}

type listFunc func(ctx context.Context, actor ports.Actor) ([]*domain.Reimbursement, error)

func (h *ReimbursementHandler) list(c echo.Context, fn listFunc) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	items, err := fn(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reimbursementListEnvelope{Reimbursements: nonNilList(items)})
}

// Get handles GET /reimbursements/:id.
//
// @Summary      Get a request with its approval history
// @Tags         reimbursements
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reimbursement ID"
// @Success      200  {object}  reimbursementEnvelope
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /reimbursements/{id} [get]
func (h *ReimbursementHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	r, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reimbursementEnvelope{Reimbursement: r})
}

// Approve handles PUT /reimbursements/:id/approve.
//
// @Summary      Approve a pending request
// @Tags         reimbursements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true   "Reimbursement ID"
// @Param        body  body      decisionRequest  false  "Optional comments"
// @Success      200   {object}  reimbursementEnvelope
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /reimbursements/{id}/approve [put]
func (h *ReimbursementHandler) Approve(c echo.Context) error {
	return h.decide(c, domain.StatusApproved)
}

// Reject handles PUT /reimbursements/:id/reject.
//
// @Summary      Reject a pending request
// @Tags         reimbursements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Reimbursement ID"
// @Param        body  body      decisionRequest  true  "Rejection comments"
// @Success      200   {object}  reimbursementEnvelope
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /reimbursements/{id}/reject [put]
func (h *ReimbursementHandler) Reject(c echo.Context) error {
	return h.decide(c, domain.StatusRejected)
}

func (h *ReimbursementHandler) decide(c echo.Context, status domain.ReimbursementStatus) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	// Approve may be sent without a body.
	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	r, err := h.service.Decide(c.Request().Context(), actor, ports.DecisionInput{
		ID:       c.Param("id"),
		Status:   status,
		Comments: req.Comments,
	})
	if err != nil {
		metrics.DecisionErrorsTotal.WithLabelValues(decisionErrorReason(err)).Inc()
		return err
	}

	metrics.DecisionsTotal.WithLabelValues(string(status)).Inc()
	return c.JSON(http.StatusOK, reimbursementEnvelope{Reimbursement: r})
}

func decisionErrorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrCommentsRequired):
		return "comments_required"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrReimbursementNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
