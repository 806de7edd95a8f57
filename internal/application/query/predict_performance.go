package query

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/forecast"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/insight"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"
	"github.com/dharanesh-gopal/extra-curricular-module/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREDICT PERFORMANCE QUERY
// Forecasts a student's next evaluation score from their performance series,
// inline or loaded from stored evaluations.
// ══════════════════════════════════════════════════════════════════════════════

// PredictPerformanceQuery holds the request parameters. Either
// PerformanceData is supplied inline (most recent record first), or
// StudentID+ActivityID identify the series to load.
type PredictPerformanceQuery struct {
	// StudentID identifies the student for lookup mode.
	StudentID int64 `json:"student_id"`

	// ActivityID identifies the activity for lookup mode.
	ActivityID int64 `json:"activity_id"`

	// PerformanceData is the inline evaluation series, most recent first.
	PerformanceData []forecast.Record `json:"performance_data,omitempty"`
}

// Validate checks the request parameters. An empty inline series is valid:
// the forecaster degrades to an insufficient-data result.
func (q *PredictPerformanceQuery) Validate() error {
	if q.PerformanceData != nil {
		return nil
	}
	if q.StudentID <= 0 || q.ActivityID <= 0 {
		return shared.ErrRecordsRequired
	}
	return nil
}

// PredictPerformanceResult is the forecast returned to the caller.
type PredictPerformanceResult struct {
	forecast.Result

	// StudentID and ActivityID echo the lookup scope; zero for inline requests.
	StudentID  int64 `json:"student_id,omitempty"`
	ActivityID int64 `json:"activity_id,omitempty"`

	// ModelType names the forecasting path.
	ModelType string `json:"model_type"`

	// GeneratedAt is when the forecast was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// PredictPerformanceHandler handles performance-forecast queries.
type PredictPerformanceHandler struct {
	forecaster *forecast.Forecaster
	histories  forecast.HistorySource
	insights   insight.Repository
	cache      insight.ResultCache
	log        *logger.Logger
}

// NewPredictPerformanceHandler creates a new handler.
func NewPredictPerformanceHandler(
	forecaster *forecast.Forecaster,
	histories forecast.HistorySource,
	insights insight.Repository,
	cache insight.ResultCache,
	log *logger.Logger,
) *PredictPerformanceHandler {
	if log == nil {
		log = logger.Default()
	}
	return &PredictPerformanceHandler{
		forecaster: forecaster,
		histories:  histories,
		insights:   insights,
		cache:      cache,
		log:        log,
	}
}

// Handle forecasts over the series and records the insight.
func (h *PredictPerformanceHandler) Handle(ctx context.Context, query PredictPerformanceQuery) (*PredictPerformanceResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	digest, cached := h.fromCache(ctx, query)
	if cached != nil {
		return cached, nil
	}

	records, err := h.resolveRecords(ctx, query)
	if err != nil {
		return nil, err
	}

	result := &PredictPerformanceResult{
		Result:      h.forecaster.Forecast(records),
		StudentID:   query.StudentID,
		ActivityID:  query.ActivityID,
		ModelType:   insight.ModelTypePerformanceForecast,
		GeneratedAt: time.Now().UTC(),
	}

	h.record(ctx, query, result)
	if h.cache != nil && digest != "" {
		h.cache.StoreResult(ctx, insight.ModelTypePerformanceForecast, digest, result)
	}

	return result, nil
}

// resolveRecords returns the inline series or loads it from storage.
func (h *PredictPerformanceHandler) resolveRecords(ctx context.Context, query PredictPerformanceQuery) ([]forecast.Record, error) {
	if query.PerformanceData != nil {
		return query.PerformanceData, nil
	}
	if h.histories == nil {
		return nil, shared.NewDomainError("query", "PredictPerformance",
			shared.ErrValidation, "history lookup is not available, supply performance_data")
	}
	records, err := h.histories.PerformanceHistory(ctx, query.StudentID, query.ActivityID)
	if err != nil {
		return nil, shared.WrapError("query", "PredictPerformance",
			shared.ErrExternalService, "failed to load performance history", err)
	}
	return records, nil
}

// record persists the insight, best-effort.
func (h *PredictPerformanceHandler) record(ctx context.Context, query PredictPerformanceQuery, result *PredictPerformanceResult) {
	if h.insights == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		h.log.Warn("failed to encode forecast insight", logger.Err(err))
		return
	}

	ins := &insight.Insight{
		StudentID:  insight.StudentRef(query.StudentID),
		ActivityID: insight.ActivityRef(query.ActivityID),
		ModelType:  insight.ModelTypePerformanceForecast,
		Result:     payload,
		Confidence: insight.ConfidenceRef(result.Confidence),
	}
	if err := h.insights.Save(ctx, ins); err != nil {
		h.log.Warn("failed to save forecast insight",
			logger.StudentID(query.StudentID), logger.Err(err))
	}
}

// fromCache checks the result cache.
func (h *PredictPerformanceHandler) fromCache(ctx context.Context, query PredictPerformanceQuery) (string, *PredictPerformanceResult) {
	if h.cache == nil {
		return "", nil
	}

	digest, err := requestDigest(query)
	if err != nil {
		return "", nil
	}

	raw, ok := h.cache.GetResult(ctx, insight.ModelTypePerformanceForecast, digest)
	if !ok {
		return digest, nil
	}

	var result PredictPerformanceResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return digest, nil
	}
	return digest, &result
}
