package shared

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"heirloom/internal/platform/middleware"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/httputil"
)

// AuthedUser pulls the authenticated user from context. RequireAuth has
// already run on these routes; a missing or malformed ID here is a wiring
// bug, not a client error. Writes the error response itself and reports ok.
func AuthedUser(ctx context.Context, w http.ResponseWriter, logger *slog.Logger) (uuid.UUID, bool) {
	raw := middleware.GetUserID(ctx)
	if raw == "" {
		logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject"))
		return uuid.Nil, false
	}
	return userID, true
}

// PathID parses a UUID path parameter, writing a validation error when malformed.
func PathID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid id"))
		return uuid.Nil, false
	}
	return id, true
}
