package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"heirloom/internal/audit"
	"heirloom/internal/platform/middleware"
	"heirloom/internal/transport/http/shared"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/httputil"
)

// Store reads the persisted audit trail.
type Store interface {
	ListByUser(ctx context.Context, userID string) ([]audit.Event, error)
}

// Handler serves the caller's audit trail. Routes are mounted behind
// RequireAuth.
type Handler struct {
	logger *slog.Logger
	store  Store
}

func New(store Store, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, store: store}
}

// Register registers the audit routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me/audit", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.AuthedUser(ctx, w, h.logger)
	if !ok {
		return
	}

	events, err := h.store.ListByUser(ctx, userID.String())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
