package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/errs"
	authsvc "github.com/ivankudzin/eventmatch/backend/internal/services/auth"
	ratesvc "github.com/ivankudzin/eventmatch/backend/internal/services/rate"
	httperrors "github.com/ivankudzin/eventmatch/backend/internal/transport/http/errors"
)

const maxBodyBytes = 64 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

// writeServiceError maps a service error onto its HTTP status by category.
// Uncategorized errors are logged and reported as 500.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, op string) {
	var tooFast ratesvc.TooFastError
	switch {
	case errors.As(err, &tooFast):
		httperrors.WriteTooFast(w, "too many requests", tooFast.RetryAfter())
	case errors.Is(err, errs.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", errs.Message(err))
	case errors.Is(err, errs.ErrForbidden):
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: "FORBIDDEN", Message: errs.Message(err)})
	case errors.Is(err, errs.ErrNotFound):
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: "NOT_FOUND", Message: errs.Message(err)})
	case errors.Is(err, errs.ErrConflict):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: "CONFLICT", Message: errs.Message(err)})
	default:
		if log != nil {
			log.Error(op, zap.Error(err))
		}
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok || identity.UserID <= 0 {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}
	return identity, true
}

func pathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	value, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, name)), 10, 64)
	if err != nil || value <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid "+name)
		return 0, false
	}
	return value, true
}

// optionalQueryInt64 returns nil for an absent parameter and false for a
// malformed one.
func optionalQueryInt64(r *http.Request, name string) (*int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return nil, false
	}
	return &value, true
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func nopIfNil(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
