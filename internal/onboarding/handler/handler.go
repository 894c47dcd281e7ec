package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"heirloom/internal/onboarding/models"
	"heirloom/internal/platform/middleware"
	"heirloom/internal/transport/http/shared"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/httputil"
)

// Service defines the interface for onboarding operations.
type Service interface {
	SaveStep(ctx context.Context, userID uuid.UUID, stepIndex int, req *models.SaveStepRequest) (*models.SaveStepResult, error)
	Status(ctx context.Context, userID uuid.UUID) (*models.StatusResponse, error)
}

// Handler handles onboarding endpoints. Routes are mounted behind RequireAuth.
type Handler struct {
	logger     *slog.Logger
	onboarding Service
}

// New creates a new onboarding Handler.
func New(onboarding Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, onboarding: onboarding}
}

// Register registers the onboarding routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/onboarding/steps/{step}", h.handleSaveStep)
	r.Get("/onboarding/status", h.handleStatus)
}

func (h *Handler) handleSaveStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}

	stepIndex, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "step must be an integer"))
		return
	}

	var req models.SaveStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.onboarding.SaveStep(ctx, userID, stepIndex, &req)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to save onboarding step",
				"request_id", middleware.GetRequestID(ctx),
				"step", stepIndex,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}

	status, err := h.onboarding.Status(ctx, userID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to load onboarding status",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, status)
}
