package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"casetrack/internal/apperr"
	"casetrack/internal/metrics"
	"casetrack/internal/models"
	"casetrack/internal/prediction"
	"casetrack/internal/validation"
)

// PredictionHandler serves predictions and manages the active model
type PredictionHandler struct {
	registry *prediction.Registry
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(registry *prediction.Registry, m *metrics.Metrics, logger *zap.Logger) *PredictionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionHandler{registry: registry, metrics: m, logger: logger}
}

// Predict handles POST /clients/predictions
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var input models.Profile
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondDetail(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}
	if err := validation.Struct(&input); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	result, info, err := h.registry.Predict(&input)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	h.metrics.Prediction(info.Name)
	respondJSON(w, http.StatusOK, result)
}

// CurrentModel handles GET /clients/models/current
func (h *PredictionHandler) CurrentModel(w http.ResponseWriter, r *http.Request) {
	info, ok := h.registry.Current()
	if !ok {
		respondWithError(w, r, h.logger, apperr.Internal(nil, "No prediction model is loaded"))
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// AvailableModels handles GET /clients/models/available
func (h *PredictionHandler) AvailableModels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.registry.Available())
}

// SetModel handles PUT /clients/models/current/{model_name}
func (h *PredictionHandler) SetModel(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["model_name"]

	info, err := h.registry.Swap(name)
	if err != nil {
		h.metrics.ModelSwap(apperr.KindOf(err).String())
		respondWithError(w, r, h.logger, err)
		return
	}

	h.metrics.ModelSwap("ok")
	if user := GetUserFromContext(r.Context()); user != nil {
		h.logger.Info("model changed", zap.String("model", info.Name), zap.Int64("user_id", user.ID))
	}
	respondJSON(w, http.StatusOK, info)
}
