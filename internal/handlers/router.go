package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"casetrack/internal/database"
	"casetrack/internal/metrics"
	"casetrack/internal/prediction"
	"casetrack/internal/security"
	"casetrack/internal/service"
)

// Deps are the collaborators the HTTP layer needs
type Deps struct {
	DB           *database.DB
	Clients      *service.ClientService
	Auth         *service.AuthService
	Registry     *prediction.Registry
	Metrics      *metrics.Metrics
	LoginLimiter *security.RateLimiter
	Logger       *zap.Logger
}

// NewRouter wires every route. Literal paths under /clients are registered
// before the numeric {client_id} routes and ids only match digits, so
// /clients/search/... and /clients/models/... never reach a client handler.
func NewRouter(d Deps) *mux.Router {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mw := NewMiddleware(d.Auth, d.Metrics, logger.Named("http"))
	clients := NewClientHandler(d.Clients, logger.Named("clients"))
	predictions := NewPredictionHandler(d.Registry, d.Metrics, logger.Named("predictions"))
	auth := NewAuthHandler(d.Auth, logger.Named("auth"))
	health := NewHealthHandler(d.DB)

	r := mux.NewRouter()
	r.Use(RequestID, mw.Logging)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.HandleFunc("/healthz", health.Healthz).Methods(http.MethodGet)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)
	}

	var login http.Handler = http.HandlerFunc(auth.Login)
	if d.LoginLimiter != nil {
		login = d.LoginLimiter.Middleware(login)
	}
	r.Handle("/auth/token", login).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", mw.RequireUser(auth.Me)).Methods(http.MethodGet)

	c := r.PathPrefix("/clients").Subrouter()

	c.HandleFunc("/predictions", predictions.Predict).Methods(http.MethodPost)
	c.HandleFunc("/models/current", predictions.CurrentModel).Methods(http.MethodGet)
	c.HandleFunc("/models/available", predictions.AvailableModels).Methods(http.MethodGet)
	c.HandleFunc("/models/current/{model_name}", mw.RequireAdmin(predictions.SetModel)).Methods(http.MethodPut)

	c.HandleFunc("/search/by-criteria", mw.RequireAdmin(clients.SearchByCriteria)).Methods(http.MethodGet)
	c.HandleFunc("/search/by-services", mw.RequireAdmin(clients.SearchByServices)).Methods(http.MethodGet)
	c.HandleFunc("/search/success-rate", mw.RequireAdmin(clients.SearchBySuccessRate)).Methods(http.MethodGet)
	c.HandleFunc("/case-worker/{case_worker_id:[0-9]+}", mw.RequireUser(clients.ListByCaseWorker)).Methods(http.MethodGet)

	c.HandleFunc("/", mw.RequireUser(clients.ListClients)).Methods(http.MethodGet)
	c.HandleFunc("/{client_id:[0-9]+}", mw.RequireAdmin(clients.GetClient)).Methods(http.MethodGet)
	c.HandleFunc("/{client_id:[0-9]+}", mw.RequireAdmin(clients.UpdateClient)).Methods(http.MethodPut)
	c.HandleFunc("/{client_id:[0-9]+}", mw.RequireAdmin(clients.DeleteClient)).Methods(http.MethodDelete)
	c.HandleFunc("/{client_id:[0-9]+}/services", mw.RequireAdmin(clients.GetClientServices)).Methods(http.MethodGet)
	c.HandleFunc("/{client_id:[0-9]+}/services/{user_id:[0-9]+}", mw.RequireUser(clients.UpdateClientServices)).Methods(http.MethodPut)
	c.HandleFunc("/{client_id:[0-9]+}/case-assignment", mw.RequireAdmin(clients.CreateCaseAssignment)).Methods(http.MethodPost)

	return r
}
