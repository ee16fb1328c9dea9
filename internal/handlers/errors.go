package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"casetrack/internal/apperr"
)

// errorResponse is the body of every error reply
type errorResponse struct {
	Detail string `json:"detail"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError maps err to a status code and writes {"detail": msg}.
// Server errors are logged with their cause.
func respondWithError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := statusFor(apperr.KindOf(err))
	msg := err.Error()

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			msg = ErrInternalServerError
		}
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	respondJSON(w, status, errorResponse{Detail: msg})
}

// respondDetail writes an error body without going through apperr
func respondDetail(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Detail: msg})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
