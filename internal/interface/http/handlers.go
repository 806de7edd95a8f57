// Package http implements the REST API for the student analytics service.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/application/query"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"
	"github.com/dharanesh-gopal/extra-curricular-module/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Student Analytics API",
		"version":     "v1",
		"description": "Dropout risk, performance forecasts, activity recommendations, and cohort clustering for the extracurricular platform",
		"endpoints": map[string]string{
			"health":              "/health",
			"predict_dropout":     "/api/v1/predict-dropout",
			"predict_performance": "/api/v1/predict-performance",
			"recommend_activity":  "/api/v1/recommend-activity",
			"cluster_students":    "/api/v1/cluster-students",
			"predictions":         "/api/v1/predictions",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handlePredictDropout handles POST /api/v1/predict-dropout
func (s *Server) handlePredictDropout(w http.ResponseWriter, r *http.Request) {
	if s.deps.PredictDropoutHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Dropout prediction is not configured")
		return
	}

	var q query.PredictDropoutQuery
	if !s.decodeBody(w, r, &q) {
		return
	}

	result, err := s.deps.PredictDropoutHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, err, "failed to predict dropout risk")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handlePredictPerformance handles POST /api/v1/predict-performance
func (s *Server) handlePredictPerformance(w http.ResponseWriter, r *http.Request) {
	if s.deps.PredictPerformanceHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Performance forecasting is not configured")
		return
	}

	var q query.PredictPerformanceQuery
	if !s.decodeBody(w, r, &q) {
		return
	}

	result, err := s.deps.PredictPerformanceHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, err, "failed to forecast performance")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleRecommendActivity handles POST /api/v1/recommend-activity
func (s *Server) handleRecommendActivity(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecommendActivityHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Activity recommendation is not configured")
		return
	}

	var q query.RecommendActivityQuery
	if !s.decodeBody(w, r, &q) {
		return
	}

	result, err := s.deps.RecommendActivityHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, err, "failed to recommend activities")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleClusterStudents handles POST /api/v1/cluster-students
func (s *Server) handleClusterStudents(w http.ResponseWriter, r *http.Request) {
	if s.deps.ClusterStudentsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Student clustering is not configured")
		return
	}

	var q query.ClusterStudentsQuery
	if !s.decodeBody(w, r, &q) {
		return
	}

	result, err := s.deps.ClusterStudentsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, err, "failed to cluster students")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PREDICTION HISTORY & COHORT INSIGHT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleInsightHistory handles GET /api/v1/predictions
func (s *Server) handleInsightHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.InsightHistoryHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Prediction history is not configured")
		return
	}

	q := query.GetInsightHistoryQuery{
		StudentID:  int64(getQueryParamInt(r, "student_id", 0)),
		ActivityID: int64(getQueryParamInt(r, "activity_id", 0)),
		ModelType:  getQueryParam(r, "model_type", ""),
		Limit:      getQueryParamInt(r, "limit", 0),
	}

	result, err := s.deps.InsightHistoryHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, err, "failed to read prediction history")
		return
	}

	meta := &ResponseMeta{TotalCount: result.Count}
	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// handleCohortInsight handles GET /api/v1/activities/{id}/cohort-insight
func (s *Server) handleCohortInsight(w http.ResponseWriter, r *http.Request) {
	if s.deps.CohortInsights == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Cohort insights are not configured")
		return
	}

	activityID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || activityID <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Activity ID must be a positive integer")
		return
	}

	raw, ok := s.deps.CohortInsights.GetCohortInsight(r.Context(), activityID)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not_found", "No precomputed insight for this activity")
		return
	}

	writeJSON(w, http.StatusOK, raw)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST & ERROR HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes the JSON request body into dst. It writes the error
// response itself and reports whether decoding succeeded.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	limit := s.config.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, limit))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return false
	}

	return true
}

// writeQueryError maps a query-layer error to an HTTP status.
func (s *Server) writeQueryError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case shared.IsValidation(err):
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "validation_error", message, err.Error())
	case shared.IsNotFound(err):
		writeJSONErrorWithDetails(w, http.StatusNotFound, "not_found", message, err.Error())
	case errors.Is(err, shared.ErrModelNotReady):
		writeJSONError(w, http.StatusServiceUnavailable, "model_not_ready", "The model artifact is not loaded yet")
	case shared.IsExternalService(err):
		s.logger.Error(message, logger.Err(err), logger.String("request_id", getRequestID(r.Context())))
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", message)
	default:
		s.logger.Error(message, logger.Err(err), logger.String("request_id", getRequestID(r.Context())))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", message)
	}
}
