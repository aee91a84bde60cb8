package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
	"go.uber.org/zap"

	"github.com/olivezebra/mensa-api/internal/app/apperr"
	"github.com/olivezebra/mensa-api/internal/app/users"
)

const (
	codeUnauthorized       = "UNAUTHORIZED"
	codeUserNotProvisioned = "USER_NOT_PROVISIONED"
	codeInvalidParameter   = "INVALID_PARAMETER"
	codeInternal           = "INTERNAL_ERROR"
)

// statusForKind maps an application error kind to its HTTP status.
func statusForKind(k apperr.Kind) int {
	switch k {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindRenderUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestId = nullable.NewNullableWithValue(rid)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(er)
}

// writeAppError renders err. Unclassified errors become a 500 and are logged;
// their text never reaches the client.
func writeAppError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		writeError(w, r, statusForKind(ae.Kind), ae.Code, ae.Message, nil)
		return
	}
	if errors.Is(err, users.ErrNotProvisioned) {
		writeError(w, r, http.StatusUnauthorized, codeUserNotProvisioned, "No user exists for the authenticated subject.", nil)
		return
	}

	logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeError(w, r, http.StatusInternalServerError, codeInternal, "internal error", nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
