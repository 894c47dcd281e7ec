package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"heirloom/internal/estate/models"
	"heirloom/internal/platform/middleware"
	"heirloom/internal/transport/http/shared"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/httputil"
)

// Service defines the interface for asset and beneficiary operations.
type Service interface {
	CreateAsset(ctx context.Context, ownerID uuid.UUID, req *models.AssetRequest) (*models.Asset, error)
	UpdateAsset(ctx context.Context, ownerID, id uuid.UUID, req *models.AssetRequest) (*models.Asset, error)
	GetAsset(ctx context.Context, ownerID, id uuid.UUID) (*models.Asset, error)
	ListAssets(ctx context.Context, ownerID uuid.UUID) ([]*models.Asset, error)
	DeleteAsset(ctx context.Context, ownerID, id uuid.UUID) error

	CreateBeneficiary(ctx context.Context, ownerID uuid.UUID, req *models.BeneficiaryRequest) (*models.Beneficiary, error)
	UpdateBeneficiary(ctx context.Context, ownerID, id uuid.UUID, req *models.BeneficiaryRequest) (*models.Beneficiary, error)
	GetBeneficiary(ctx context.Context, ownerID, id uuid.UUID) (*models.Beneficiary, error)
	ListBeneficiaries(ctx context.Context, ownerID uuid.UUID) ([]*models.Beneficiary, error)
	DeleteBeneficiary(ctx context.Context, ownerID, id uuid.UUID) error
}

// Handler handles asset and beneficiary endpoints. Routes are mounted behind
// RequireAuth.
type Handler struct {
	logger *slog.Logger
	estate Service
}

// New creates a new estate Handler.
func New(estate Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, estate: estate}
}

// Register registers the estate routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/assets", func(r chi.Router) {
		r.Post("/", h.handleCreateAsset)
		r.Get("/", h.handleListAssets)
		r.Get("/{id}", h.handleGetAsset)
		r.Put("/{id}", h.handleUpdateAsset)
		r.Delete("/{id}", h.handleDeleteAsset)
	})
	r.Route("/beneficiaries", func(r chi.Router) {
		r.Post("/", h.handleCreateBeneficiary)
		r.Get("/", h.handleListBeneficiaries)
		r.Get("/{id}", h.handleGetBeneficiary)
		r.Put("/{id}", h.handleUpdateBeneficiary)
		r.Delete("/{id}", h.handleDeleteBeneficiary)
	})
}

func (h *Handler) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}

	var req models.AssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	a, err := h.estate.CreateAsset(ctx, userID, &req)
	if err != nil {
		h.writeError(ctx, w, "failed to create asset", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleListAssets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}

	assets, err := h.estate.ListAssets(ctx, userID)
	if err != nil {
		h.writeError(ctx, w, "failed to list assets", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

func (h *Handler) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	a, err := h.estate.GetAsset(ctx, userID, id)
	if err != nil {
		h.writeError(ctx, w, "failed to load asset", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req models.AssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	a, err := h.estate.UpdateAsset(ctx, userID, id, &req)
	if err != nil {
		h.writeError(ctx, w, "failed to update asset", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.estate.DeleteAsset(ctx, userID, id); err != nil {
		h.writeError(ctx, w, "failed to delete asset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateBeneficiary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}

	var req models.BeneficiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	b, err := h.estate.CreateBeneficiary(ctx, userID, &req)
	if err != nil {
		h.writeError(ctx, w, "failed to create beneficiary", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) handleListBeneficiaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}

	beneficiaries, err := h.estate.ListBeneficiaries(ctx, userID)
	if err != nil {
		h.writeError(ctx, w, "failed to list beneficiaries", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"beneficiaries": beneficiaries})
}

func (h *Handler) handleGetBeneficiary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	b, err := h.estate.GetBeneficiary(ctx, userID, id)
	if err != nil {
		h.writeError(ctx, w, "failed to load beneficiary", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleUpdateBeneficiary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req models.BeneficiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	b, err := h.estate.UpdateBeneficiary(ctx, userID, id, &req)
	if err != nil {
		h.writeError(ctx, w, "failed to update beneficiary", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleDeleteBeneficiary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.estate.DeleteBeneficiary(ctx, userID, id); err != nil {
		h.writeError(ctx, w, "failed to delete beneficiary", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
