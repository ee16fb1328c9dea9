package handlers

import (
	"encoding/json"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"casetrack/internal/database"
	"casetrack/internal/service"
	"casetrack/internal/validation"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{authService: authService, logger: logger}
}

// Login handles POST /auth/token. It accepts a JSON body or an
// OAuth2 password form.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds service.Credentials

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			respondDetail(w, http.StatusBadRequest, ErrInvalidJSON)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			respondDetail(w, http.StatusBadRequest, "Invalid form data")
			return
		}
		if err := validation.DecodeQuery(&creds, r.PostForm); err != nil {
			respondWithError(w, r, h.logger, err)
			return
		}
	}

	token, err := h.authService.Login(r.Context(), creds)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, token)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, GetUserFromContext(r.Context()))
}

// HealthHandler reports whether the store is reachable
type HealthHandler struct {
	db *database.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
