package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"heirloom/internal/inheritance/models"
	"heirloom/internal/platform/middleware"
	"heirloom/internal/transport/http/shared"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/httputil"
)

// Service defines the interface for rule and allocation operations.
type Service interface {
	CreateRule(ctx context.Context, ownerID uuid.UUID, req *models.RuleRequest) (*models.InheritanceRule, error)
	UpdateRule(ctx context.Context, ownerID, id uuid.UUID, req *models.RuleRequest) (*models.InheritanceRule, error)
	GetRule(ctx context.Context, ownerID, id uuid.UUID) (*models.InheritanceRule, error)
	ListRules(ctx context.Context, ownerID uuid.UUID) ([]*models.InheritanceRule, error)
	DeleteRule(ctx context.Context, ownerID, id uuid.UUID) error

	ListAllocations(ctx context.Context, ownerID, ruleID uuid.UUID) ([]*models.RuleAllocation, error)
	CreateAllocation(ctx context.Context, ownerID, ruleID uuid.UUID, req *models.AllocationRequest) (*models.RuleAllocation, error)
	UpdateAllocation(ctx context.Context, ownerID, id uuid.UUID, req *models.AllocationRequest) (*models.RuleAllocation, error)
	DeleteAllocation(ctx context.Context, ownerID, id uuid.UUID) error
	ValidateAllocation(ctx context.Context, ownerID uuid.UUID, req *models.AllocationRequest) (*models.ValidationResult, error)
}

// Handler handles rule and allocation endpoints. Routes are mounted behind
// RequireAuth.
type Handler struct {
	logger      *slog.Logger
	inheritance Service
}

// New creates a new inheritance Handler.
func New(inheritance Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, inheritance: inheritance}
}

// Register registers the inheritance routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/rules", func(r chi.Router) {
		r.Post("/", h.handleCreateRule)
		r.Get("/", h.handleListRules)
		r.Get("/{id}", h.handleGetRule)
		r.Put("/{id}", h.handleUpdateRule)
		r.Delete("/{id}", h.handleDeleteRule)
		r.Get("/{id}/allocations", h.handleListAllocations)
		r.Post("/{id}/allocations", h.handleCreateAllocation)
	})
	r.Route("/allocations", func(r chi.Router) {
		r.Put("/{id}", h.handleUpdateAllocation)
		r.Delete("/{id}", h.handleDeleteAllocation)
		r.Post("/validate", h.handleValidateAllocation)
	})
}

func (h *Handler) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}

	var req models.RuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rule, err := h.inheritance.CreateRule(ctx, userID, &req)
	if err != nil {
		h.writeError(ctx, w, "failed to create rule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rule)
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}

	rules, err := h.inheritance.ListRules(ctx, userID)
	if err != nil {
		h.writeError(ctx, w, "failed to list rules", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (h *Handler) handleGetRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	rule, err := h.inheritance.GetRule(ctx, userID, id)
	if err != nil {
		h.writeError(ctx, w, "failed to load rule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req models.RuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rule, err := h.inheritance.UpdateRule(ctx, userID, id, &req)
	if err != nil {
		h.writeError(ctx, w, "failed to update rule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.inheritance.DeleteRule(ctx, userID, id); err != nil {
		h.writeError(ctx, w, "failed to delete rule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListAllocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}
	ruleID, ok := shared.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	allocations, err := h.inheritance.ListAllocations(ctx, userID, ruleID)
	if err != nil {
		h.writeError(ctx, w, "failed to list allocations", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"allocations": allocations})
}

func (h *Handler) handleCreateAllocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}
	ruleID, ok := shared.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req models.AllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	a, err := h.inheritance.CreateAllocation(ctx, userID, ruleID, &req)
	if err != nil {
		h.writeError(ctx, w, "failed to create allocation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleUpdateAllocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req models.AllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	a, err := h.inheritance.UpdateAllocation(ctx, userID, id, &req)
	if err != nil {
		h.writeError(ctx, w, "failed to update allocation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleDeleteAllocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.inheritance.DeleteAllocation(ctx, userID, id); err != nil {
		h.writeError(ctx, w, "failed to delete allocation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleValidateAllocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}

	var req models.AllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.inheritance.ValidateAllocation(ctx, userID, &req)
	if err != nil {
		h.writeError(ctx, w, "failed to validate allocation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
