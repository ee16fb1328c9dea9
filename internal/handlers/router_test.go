package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casetrack/internal/database"
	"casetrack/internal/metrics"
	"casetrack/internal/models"
	"casetrack/internal/prediction"
	"casetrack/internal/repository"
	"casetrack/internal/security"
	"casetrack/internal/service"
	"casetrack/migrations"
)

type testServer struct {
	*httptest.Server
	db       *database.DB
	admin    *models.User
	worker   *models.User
	registry *prediction.Registry
}

func newTestServer(t *testing.T, loginLimit int) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(ctx, migrations.FS, nil))

	auth := service.NewAuthService(db, security.NewTokenIssuer("handler-secret", time.Hour), nil)
	admin, err := auth.CreateUser(ctx, service.NewUser{Username: "admin", Email: "admin@example.com", Password: "admin-password", Role: models.RoleAdmin})
	require.NoError(t, err)
	worker, err := auth.CreateUser(ctx, service.NewUser{Username: "worker", Email: "worker@example.com", Password: "worker-password", Role: models.RoleCaseWorker})
	require.NoError(t, err)

	registry := prediction.NewRegistry(filepath.Join("..", "..", "models"), nil)
	_, err = registry.Swap("linear_regression")
	require.NoError(t, err)

	limiter := security.NewRateLimiter(loginLimit, time.Minute)
	t.Cleanup(limiter.Close)

	m := metrics.New()
	router := NewRouter(Deps{
		DB:           db,
		Clients:      service.NewClientService(db, nil, m, nil),
		Auth:         auth,
		Registry:     registry,
		Metrics:      m,
		LoginLimiter: limiter,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, db: db, admin: admin, worker: worker, registry: registry}
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()

	resp, err := http.PostForm(s.URL+"/auth/token", url.Values{"username": {username}, "password": {password}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tok service.Token
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	return tok.AccessToken
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (s *testServer) seedClient(t *testing.T) *models.Client {
	t.Helper()

	c, err := repository.NewClientRepository(s.db).Create(context.Background(), &models.Profile{
		Age: 30, Gender: 1, LevelOfSchooling: 8, Housing: 3, IncomeSource: 2,
	})
	require.NoError(t, err)
	return c
}

func detail(t *testing.T, body []byte) string {
	t.Helper()

	var e errorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Detail
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t, 100)
	workerToken := s.login(t, "worker", "worker-password")

	status, body := s.do(t, http.MethodGet, "/clients/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, ErrNotAuthenticated, detail(t, body))

	status, _ = s.do(t, http.MethodGet, "/clients/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/clients/", workerToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodGet, "/clients/search/success-rate", workerToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, ErrAdminRequired, detail(t, body))

	status, body = s.do(t, http.MethodPost, "/auth/token", "", service.Credentials{Username: "worker", Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Incorrect username or password", detail(t, body))

	status, body = s.do(t, http.MethodGet, "/auth/me", workerToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"username":"worker"`)
	assert.NotContains(t, string(body), "password")
}

func TestLoginRateLimit(t *testing.T) {
	s := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		status, _ := s.do(t, http.MethodPost, "/auth/token", "", service.Credentials{Username: "worker", Password: "wrong-one"})
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	status, body := s.do(t, http.MethodPost, "/auth/token", "", service.Credentials{Username: "worker", Password: "worker-password"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Too many requests", detail(t, body))
}

func TestClientLifecycle(t *testing.T) {
	s := newTestServer(t, 100)
	admin := s.login(t, "admin", "admin-password")
	worker := s.login(t, "worker", "worker-password")
	client := s.seedClient(t)

	assignPath := fmt.Sprintf("/clients/%d/case-assignment?case_worker_id=%d", client.ID, s.worker.ID)

	status, body := s.do(t, http.MethodPost, assignPath, admin, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var created models.ClientCase
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, models.ClientCase{ClientID: client.ID, UserID: s.worker.ID}, created)

	status, _ = s.do(t, http.MethodPost, assignPath, admin, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, body = s.do(t, http.MethodPost, fmt.Sprintf("/clients/%d/case-assignment", client.ID), admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "case_worker_id is required", detail(t, body))

	status, body = s.do(t, http.MethodPost, fmt.Sprintf("/clients/999/case-assignment?case_worker_id=%d", s.worker.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Client with id 999 not found", detail(t, body))

	servicesPath := fmt.Sprintf("/clients/%d/services/%d", client.ID, s.worker.ID)
	status, body = s.do(t, http.MethodPut, servicesPath, worker, map[string]any{"life_stabilization": true, "success_rate": 75})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"life_stabilization":true`)

	status, body = s.do(t, http.MethodGet, "/clients/search/success-rate", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var rated []models.Client
	require.NoError(t, json.Unmarshal(body, &rated))
	require.Len(t, rated, 1)
	assert.Equal(t, client.ID, rated[0].ID)

	status, body = s.do(t, http.MethodGet, "/clients/search/by-services?life_stabilization=true&employment_assistance=false", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), fmt.Sprintf(`"id":%d`, client.ID))

	status, body = s.do(t, http.MethodGet, fmt.Sprintf("/clients/case-worker/%d", s.worker.ID), worker, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), fmt.Sprintf(`"id":%d`, client.ID))

	status, body = s.do(t, http.MethodPut, fmt.Sprintf("/clients/%d", client.ID), admin, map[string]any{"age": 31})
	require.Equal(t, http.StatusOK, status)
	var updated models.Client
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, 31, updated.Age)
	assert.Equal(t, client.Housing, updated.Housing)

	status, body = s.do(t, http.MethodPut, fmt.Sprintf("/clients/%d", client.ID), admin, map[string]any{"gender": nil})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "gender cannot be null", detail(t, body))

	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/clients/%d", client.ID), admin, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = s.do(t, http.MethodGet, fmt.Sprintf("/clients/%d/services", client.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, fmt.Sprintf("No services found for client with id %d", client.ID), detail(t, body))
}

func TestSearchValidation(t *testing.T) {
	s := newTestServer(t, 100)
	admin := s.login(t, "admin", "admin-password")
	s.seedClient(t)

	tests := []struct {
		query      string
		wantStatus int
		wantDetail string
	}{
		{"education_level=15", http.StatusBadRequest, "Education level must be between 1 and 14"},
		{"age_min=17", http.StatusBadRequest, "Minimum age must be at least 18"},
		{"housing=11", http.StatusBadRequest, "housing must be less than or equal to 10"},
		{"age_min=abc", http.StatusBadRequest, `age_min has an invalid value "abc"`},
		{"gender=3", http.StatusBadRequest, "Gender must be 1 or 2"},
		{"age_min=18&education_level=8", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			status, body := s.do(t, http.MethodGet, "/clients/search/by-criteria?"+tt.query, admin, nil)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, detail(t, body))
			}
		})
	}

	status, body := s.do(t, http.MethodGet, "/clients/?limit=151", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Limit cannot exceed 150", detail(t, body))

	status, body = s.do(t, http.MethodGet, "/clients/search/success-rate?min_rate=101", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Success rate must be between 0 and 100", detail(t, body))
}

func TestPredictionRoutes(t *testing.T) {
	s := newTestServer(t, 100)
	admin := s.login(t, "admin", "admin-password")

	status, body := s.do(t, http.MethodGet, "/clients/models/current", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"name":"linear_regression","type":"LinearRegression"}`, string(body))

	status, body = s.do(t, http.MethodGet, "/clients/models/available", "", nil)
	require.Equal(t, http.StatusOK, status)
	var available []prediction.Info
	require.NoError(t, json.Unmarshal(body, &available))
	assert.Len(t, available, 3)

	status, _ = s.do(t, http.MethodPut, "/clients/models/current/random_forest", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(t, http.MethodPut, "/clients/models/current/svm", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.True(t, strings.HasPrefix(detail(t, body), "Model 'svm' not found"))

	status, body = s.do(t, http.MethodPut, "/clients/models/current/random_forest", admin, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.JSONEq(t, `{"name":"random_forest","type":"RandomForestRegressor"}`, string(body))

	input := models.Profile{
		Age: 35, Gender: 2, WorkExperience: 4, LevelOfSchooling: 6,
		ReadingEnglishScale: 4, SpeakingEnglishScale: 4, WritingEnglishScale: 4,
		NumeracyScale: 4, ComputerScale: 4, Housing: 5, IncomeSource: 3, TimeUnemployed: 6,
	}
	status, body = s.do(t, http.MethodPost, "/clients/predictions", "", input)
	require.Equal(t, http.StatusOK, status, string(body))
	var result prediction.Result
	require.NoError(t, json.Unmarshal(body, &result))
	assert.LessOrEqual(t, len(result.Interventions), 3)

	input.Age = 12
	status, _ = s.do(t, http.MethodPost, "/clients/predictions", "", input)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t, 100)

	status, body := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	status, _ = s.do(t, http.MethodGet, "/clients/not-a-number", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	req, err := http.NewRequest(http.MethodGet, s.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))

	status, body = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `casetrack_http_requests_total{method="GET",route="/healthz",status="200"}`)
}
