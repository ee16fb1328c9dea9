package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"casetrack/internal/apperr"
	"casetrack/internal/filter"
	"casetrack/internal/models"
	"casetrack/internal/service"
	"casetrack/internal/validation"
)

// ClientHandler handles client, case and search requests
type ClientHandler struct {
	clients *service.ClientService
	logger  *zap.Logger
}

// NewClientHandler creates a new client handler
func NewClientHandler(clients *service.ClientService, logger *zap.Logger) *ClientHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientHandler{clients: clients, logger: logger}
}

type pageQuery struct {
	Skip  *int `form:"skip"`
	Limit *int `form:"limit"`
}

type successRateQuery struct {
	MinRate *int `form:"min_rate"`
}

type assignmentQuery struct {
	CaseWorkerID *int64 `form:"case_worker_id"`
}

// ListClients handles GET /clients/
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	var q pageQuery
	if err := validation.DecodeQuery(&q, r.URL.Query()); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	skip, limit := service.DefaultSkip, service.DefaultLimit
	if q.Skip != nil {
		skip = *q.Skip
	}
	if q.Limit != nil {
		limit = *q.Limit
	}

	page, err := h.clients.GetClients(r.Context(), skip, limit)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GetClient handles GET /clients/{client_id}
func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "client_id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	client, err := h.clients.GetClient(r.Context(), clientID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// SearchByCriteria handles GET /clients/search/by-criteria
func (h *ClientHandler) SearchByCriteria(w http.ResponseWriter, r *http.Request) {
	var criteria filter.Criteria
	if err := validation.DecodeQuery(&criteria, r.URL.Query()); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if err := validation.Struct(&criteria); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	clients, err := h.clients.GetClientsByCriteria(r.Context(), &criteria)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, clients)
}

// SearchByServices handles GET /clients/search/by-services
func (h *ClientHandler) SearchByServices(w http.ResponseWriter, r *http.Request) {
	var flags filter.ServiceFlags
	if err := validation.DecodeQuery(&flags, r.URL.Query()); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	clients, err := h.clients.GetClientsByServices(r.Context(), &flags)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, clients)
}

// SearchBySuccessRate handles GET /clients/search/success-rate
func (h *ClientHandler) SearchBySuccessRate(w http.ResponseWriter, r *http.Request) {
	var q successRateQuery
	if err := validation.DecodeQuery(&q, r.URL.Query()); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	minRate := service.DefaultMinRate
	if q.MinRate != nil {
		minRate = *q.MinRate
	}

	clients, err := h.clients.GetClientsBySuccessRate(r.Context(), minRate)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, clients)
}

// GetClientServices handles GET /clients/{client_id}/services
func (h *ClientHandler) GetClientServices(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "client_id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	cases, err := h.clients.GetClientServices(r.Context(), clientID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, cases)
}

// ListByCaseWorker handles GET /clients/case-worker/{case_worker_id}
func (h *ClientHandler) ListByCaseWorker(w http.ResponseWriter, r *http.Request) {
	workerID, err := pathID(r, "case_worker_id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	clients, err := h.clients.GetClientsByCaseWorker(r.Context(), workerID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, clients)
}

// UpdateClient handles PUT /clients/{client_id}
func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "client_id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	var update models.ClientUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondDetail(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}

	client, err := h.clients.UpdateClient(r.Context(), clientID, &update)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// UpdateClientServices handles PUT /clients/{client_id}/services/{user_id}
func (h *ClientHandler) UpdateClientServices(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "client_id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	userID, err := pathID(r, "user_id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	var update models.ServiceUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondDetail(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}

	c, err := h.clients.UpdateClientServices(r.Context(), clientID, userID, &update)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// CreateCaseAssignment handles POST /clients/{client_id}/case-assignment
func (h *ClientHandler) CreateCaseAssignment(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "client_id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	var q assignmentQuery
	if err := validation.DecodeQuery(&q, r.URL.Query()); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if q.CaseWorkerID == nil {
		respondWithError(w, r, h.logger, apperr.InvalidArgument("case_worker_id is required"))
		return
	}

	c, err := h.clients.CreateCaseAssignment(r.Context(), clientID, *q.CaseWorkerID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// DeleteClient handles DELETE /clients/{client_id}
func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "client_id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	if err := h.clients.DeleteClient(r.Context(), clientID); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, apperr.InvalidArgument("%s must be an integer", name)
	}
	return id, nil
}
