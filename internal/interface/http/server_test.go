package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/application/query"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/cluster"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/forecast"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/insight"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/recommend"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/risk"
)

type stubInsightRepo struct {
	insights []insight.Insight
}

func (s *stubInsightRepo) Save(ctx context.Context, ins *insight.Insight) error {
	s.insights = append(s.insights, *ins)
	return nil
}

func (s *stubInsightRepo) History(ctx context.Context, filter insight.HistoryFilter) ([]insight.Insight, error) {
	return s.insights, nil
}

func newTestServer(t *testing.T, config Config) *Server {
	t.Helper()

	repo := &stubInsightRepo{}
	deps := Dependencies{
		PredictDropoutHandler:     query.NewPredictDropoutHandler(risk.NewScorer(nil), nil, nil, nil, nil),
		PredictPerformanceHandler: query.NewPredictPerformanceHandler(forecast.NewForecaster(), nil, nil, nil, nil),
		RecommendActivityHandler:  query.NewRecommendActivityHandler(recommend.NewRecommender(), nil, nil, nil, nil),
		ClusterStudentsHandler:    query.NewClusterStudentsHandler(cluster.NewClusterer(), nil, nil, nil, nil),
		InsightHistoryHandler:     query.NewGetInsightHistoryHandler(repo),
	}

	return NewServer(config, deps)
}

func doRequest(s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestServerHealthEndpoints(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	for _, path := range []string{"/health", "/healthz", "/ready", "/live"} {
		rec := doRequest(s, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := doRequest(s, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestPredictDropoutEndpoint(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	body := `{"student_data":{"attendance_percentage":55,"average_score":40,"total_sessions":2,"days_enrolled":30}}`
	rec := doRequest(s, http.MethodPost, "/api/v1/predict-dropout", body, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result query.PredictDropoutResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "high", string(result.RiskLevel))
}

func TestPredictDropoutValidation(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := doRequest(s, http.MethodPost, "/api/v1/predict-dropout", `{}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "validation_error", resp.Error.Code)
}

func TestPredictDropoutMalformedJSON(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := doRequest(s, http.MethodPost, "/api/v1/predict-dropout", `{"student_data":`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_request", resp.Error.Code)
}

func TestPredictPerformanceEndpoint(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	body := `{"performance_data":[{"score":90,"evaluation_date":"2025-03-01"},{"score":80,"evaluation_date":"2025-02-01"},{"score":70,"evaluation_date":"2025-01-01"}]}`
	rec := doRequest(s, http.MethodPost, "/api/v1/predict-performance", body, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestRecommendActivityEndpoint(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	body := `{"student_id":7,"enrollment_history":[{"category":"sports","avg_score":88,"activity_id":3}]}`
	rec := doRequest(s, http.MethodPost, "/api/v1/recommend-activity", body, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestClusterStudentsEndpoint(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	body := `{"student_data":[
		{"student_id":1,"student_name":"A","attendance_percentage":90,"average_score":85,"skill_level":"advanced"},
		{"student_id":2,"student_name":"B","attendance_percentage":40,"average_score":35,"skill_level":"beginner"}
	]}`
	rec := doRequest(s, http.MethodPost, "/api/v1/cluster-students", body, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestInsightHistoryEndpoint(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := doRequest(s, http.MethodGet, "/api/v1/predictions?limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/v1/predictions?model_type=unknown", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKeyMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-key"), bcrypt.MinCost)
	require.NoError(t, err)

	config := DefaultConfig()
	config.APIKeyHashes = []string{string(hash)}
	s := newTestServer(t, config)

	body := `{"student_id":7,"enrollment_history":[]}`

	// Missing key is rejected.
	rec := doRequest(s, http.MethodPost, "/api/v1/recommend-activity", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong key is rejected.
	rec = doRequest(s, http.MethodPost, "/api/v1/recommend-activity", body,
		map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct key passes.
	rec = doRequest(s, http.MethodPost, "/api/v1/recommend-activity", body,
		map[string]string{"X-API-Key": "secret-key"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health endpoints stay open.
	rec = doRequest(s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := doRequest(s, http.MethodGet, "/live", "", map[string]string{"X-Request-ID": "req-123"})
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = doRequest(s, http.MethodGet, "/live", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := doRequest(s, http.MethodGet, "/live", "", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRateLimit(t *testing.T) {
	config := DefaultConfig()
	config.RateLimitPerMinute = 2
	s := newTestServer(t, config)

	headers := map[string]string{"X-Real-IP": "10.0.0.9"}
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/live", "", headers).Code)
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/live", "", headers).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(s, http.MethodGet, "/live", "", headers).Code)
}
