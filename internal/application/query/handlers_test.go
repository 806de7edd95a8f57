package query

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/cluster"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/forecast"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/insight"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/recommend"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/risk"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Stubs
// ─────────────────────────────────────────────────────────────────────────────

type stubMetrics struct {
	snapshot risk.Snapshot
	records  []forecast.Record
	history  []recommend.Enrollment
	cohort   []cluster.Member
	err      error
}

func (s *stubMetrics) RiskSnapshot(ctx context.Context, studentID, activityID int64) (risk.Snapshot, error) {
	return s.snapshot, s.err
}

func (s *stubMetrics) PerformanceHistory(ctx context.Context, studentID, activityID int64) ([]forecast.Record, error) {
	return s.records, s.err
}

func (s *stubMetrics) EnrollmentHistory(ctx context.Context, studentID int64) ([]recommend.Enrollment, error) {
	return s.history, s.err
}

func (s *stubMetrics) ActivityCohort(ctx context.Context, activityID int64) ([]cluster.Member, error) {
	return s.cohort, s.err
}

type stubInsights struct {
	saved   []*insight.Insight
	history []insight.Insight
	err     error
}

func (s *stubInsights) Save(ctx context.Context, ins *insight.Insight) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, ins)
	return nil
}

func (s *stubInsights) History(ctx context.Context, filter insight.HistoryFilter) ([]insight.Insight, error) {
	return s.history, s.err
}

type stubCache struct {
	entries map[string]json.RawMessage
	stores  int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]json.RawMessage)}
}

func (s *stubCache) GetResult(ctx context.Context, modelType, digest string) (json.RawMessage, bool) {
	raw, ok := s.entries[modelType+":"+digest]
	return raw, ok
}

func (s *stubCache) StoreResult(ctx context.Context, modelType, digest string, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	s.entries[modelType+":"+digest] = data
	s.stores++
}

// ─────────────────────────────────────────────────────────────────────────────
// PredictDropout
// ─────────────────────────────────────────────────────────────────────────────

func TestPredictDropout_InlineSnapshot(t *testing.T) {
	insights := &stubInsights{}
	h := NewPredictDropoutHandler(risk.NewScorer(nil), nil, insights, nil, nil)

	result, err := h.Handle(context.Background(), PredictDropoutQuery{
		StudentData: &risk.Snapshot{AttendancePercentage: 55, AverageScore: 40, TotalSessions: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.9, result.RiskScore)
	assert.Equal(t, risk.LevelHigh, result.RiskLevel)
	assert.Equal(t, insight.ModelTypeDropoutRisk, result.ModelType)
	assert.False(t, result.GeneratedAt.IsZero())

	require.Len(t, insights.saved, 1)
	assert.Equal(t, insight.ModelTypeDropoutRisk, insights.saved[0].ModelType)
	assert.Equal(t, "high", insights.saved[0].RiskLevel)
}

func TestPredictDropout_LookupMode(t *testing.T) {
	metrics := &stubMetrics{snapshot: risk.Snapshot{AttendancePercentage: 90, AverageScore: 85, TotalSessions: 12}}
	h := NewPredictDropoutHandler(risk.NewScorer(nil), metrics, nil, nil, nil)

	result, err := h.Handle(context.Background(), PredictDropoutQuery{StudentID: 7, ActivityID: 3})
	require.NoError(t, err)

	assert.Equal(t, risk.LevelLow, result.RiskLevel)
	assert.Equal(t, int64(7), result.StudentID)
	assert.Equal(t, int64(3), result.ActivityID)
}

func TestPredictDropout_EnrollmentNotFound(t *testing.T) {
	metrics := &stubMetrics{err: shared.ErrEnrollmentNotFound}
	h := NewPredictDropoutHandler(risk.NewScorer(nil), metrics, nil, nil, nil)

	_, err := h.Handle(context.Background(), PredictDropoutQuery{StudentID: 7, ActivityID: 3})
	assert.True(t, shared.IsNotFound(err))
}

func TestPredictDropout_ValidationRejectsEmptyQuery(t *testing.T) {
	h := NewPredictDropoutHandler(risk.NewScorer(nil), nil, nil, nil, nil)

	_, err := h.Handle(context.Background(), PredictDropoutQuery{})
	assert.True(t, shared.IsValidation(err))
}

func TestPredictDropout_InsightFailureDoesNotFailQuery(t *testing.T) {
	insights := &stubInsights{err: errors.New("db down")}
	h := NewPredictDropoutHandler(risk.NewScorer(nil), nil, insights, nil, nil)

	result, err := h.Handle(context.Background(), PredictDropoutQuery{
		StudentData: &risk.Snapshot{AttendancePercentage: 80, AverageScore: 80, TotalSessions: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, risk.LevelLow, result.RiskLevel)
}

func TestPredictDropout_CacheRoundTrip(t *testing.T) {
	cache := newStubCache()
	h := NewPredictDropoutHandler(risk.NewScorer(nil), nil, nil, cache, nil)

	query := PredictDropoutQuery{
		StudentData: &risk.Snapshot{AttendancePercentage: 55, AverageScore: 40, TotalSessions: 2},
	}

	first, err := h.Handle(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.stores)

	second, err := h.Handle(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.stores, "second call must be served from cache")
	assert.Equal(t, first.RiskScore, second.RiskScore)
	assert.Equal(t, first.GeneratedAt.Unix(), second.GeneratedAt.Unix())
}

// ─────────────────────────────────────────────────────────────────────────────
// PredictPerformance
// ─────────────────────────────────────────────────────────────────────────────

func TestPredictPerformance_InlineSeries(t *testing.T) {
	h := NewPredictPerformanceHandler(forecast.NewForecaster(), nil, nil, nil, nil)

	result, err := h.Handle(context.Background(), PredictPerformanceQuery{
		PerformanceData: []forecast.Record{{Score: 90}, {Score: 80}, {Score: 70}},
	})
	require.NoError(t, err)

	assert.Equal(t, forecast.TrendImproving, result.Trend)
	assert.Equal(t, insight.ModelTypePerformanceForecast, result.ModelType)
}

func TestPredictPerformance_LookupMode(t *testing.T) {
	metrics := &stubMetrics{records: []forecast.Record{{Score: 70}, {Score: 80}, {Score: 90}}}
	insights := &stubInsights{}
	h := NewPredictPerformanceHandler(forecast.NewForecaster(), metrics, insights, nil, nil)

	result, err := h.Handle(context.Background(), PredictPerformanceQuery{StudentID: 7, ActivityID: 3})
	require.NoError(t, err)

	assert.Equal(t, forecast.TrendDeclining, result.Trend)
	require.Len(t, insights.saved, 1)
	require.NotNil(t, insights.saved[0].StudentID)
	assert.Equal(t, int64(7), *insights.saved[0].StudentID)
}

func TestPredictPerformance_EmptyInlineSeriesDegrades(t *testing.T) {
	h := NewPredictPerformanceHandler(forecast.NewForecaster(), nil, nil, nil, nil)

	result, err := h.Handle(context.Background(), PredictPerformanceQuery{
		PerformanceData: []forecast.Record{},
	})
	require.NoError(t, err)
	assert.Equal(t, forecast.TrendInsufficientData, result.Trend)
}

func TestPredictPerformance_ValidationRejectsEmptyQuery(t *testing.T) {
	h := NewPredictPerformanceHandler(forecast.NewForecaster(), nil, nil, nil, nil)

	_, err := h.Handle(context.Background(), PredictPerformanceQuery{})
	assert.True(t, shared.IsValidation(err))
}

// ─────────────────────────────────────────────────────────────────────────────
// RecommendActivity
// ─────────────────────────────────────────────────────────────────────────────

func TestRecommendActivity_InlineHistory(t *testing.T) {
	h := NewRecommendActivityHandler(recommend.NewRecommender(), nil, nil, nil, nil)

	result, err := h.Handle(context.Background(), RecommendActivityQuery{
		StudentID: 7,
		EnrollmentHistory: []recommend.Enrollment{
			{Category: shared.CategorySports, AvgScore: 88},
		},
	})
	require.NoError(t, err)

	require.NotEmpty(t, result.Suggestions)
	assert.Equal(t, shared.CategorySports, result.Suggestions[0].Category)
	assert.Equal(t, int64(7), result.StudentID)
}

func TestRecommendActivity_NewStudentWithoutStore(t *testing.T) {
	h := NewRecommendActivityHandler(recommend.NewRecommender(), nil, nil, nil, nil)

	result, err := h.Handle(context.Background(), RecommendActivityQuery{StudentID: 7})
	require.NoError(t, err)

	assert.Equal(t, "As a new student, we recommend starting with diverse activities to discover your interests.", result.Reasoning)
}

func TestRecommendActivity_RequiresStudentID(t *testing.T) {
	h := NewRecommendActivityHandler(recommend.NewRecommender(), nil, nil, nil, nil)

	_, err := h.Handle(context.Background(), RecommendActivityQuery{})
	assert.True(t, shared.IsValidation(err))
}

// ─────────────────────────────────────────────────────────────────────────────
// ClusterStudents
// ─────────────────────────────────────────────────────────────────────────────

func TestClusterStudents_InlineCohort(t *testing.T) {
	h := NewClusterStudentsHandler(cluster.NewClusterer(), nil, nil, nil, nil)

	result, err := h.Handle(context.Background(), ClusterStudentsQuery{
		StudentData: []cluster.Member{
			{StudentID: 1, AttendancePercentage: 95, AverageScore: 90},
			{StudentID: 2, AttendancePercentage: 40, AverageScore: 35},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, cluster.GroupingThreshold, result.Grouping)
	assert.Equal(t, 2, result.TotalStudents)
	assert.Equal(t, insight.ModelTypeStudentClustering, result.ModelType)
}

func TestClusterStudents_LookupMode(t *testing.T) {
	metrics := &stubMetrics{cohort: []cluster.Member{
		{StudentID: 1, AttendancePercentage: 95, AverageScore: 90},
		{StudentID: 2, AttendancePercentage: 60, AverageScore: 55},
		{StudentID: 3, AttendancePercentage: 30, AverageScore: 25},
	}}
	insights := &stubInsights{}
	h := NewClusterStudentsHandler(cluster.NewClusterer(), metrics, insights, nil, nil)

	result, err := h.Handle(context.Background(), ClusterStudentsQuery{ActivityID: 3})
	require.NoError(t, err)

	assert.Equal(t, cluster.GroupingKMeans, result.Grouping)
	assert.Equal(t, int64(3), result.ActivityID)
	require.Len(t, insights.saved, 1)
	assert.Nil(t, insights.saved[0].StudentID)
	require.NotNil(t, insights.saved[0].ActivityID)
}

func TestClusterStudents_RejectsEmptyCohort(t *testing.T) {
	h := NewClusterStudentsHandler(cluster.NewClusterer(), nil, nil, nil, nil)

	_, err := h.Handle(context.Background(), ClusterStudentsQuery{StudentData: []cluster.Member{}})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), ClusterStudentsQuery{})
	assert.True(t, shared.IsValidation(err))
}

func TestClusterStudents_EmptyStoredCohortRejected(t *testing.T) {
	metrics := &stubMetrics{}
	h := NewClusterStudentsHandler(cluster.NewClusterer(), metrics, nil, nil, nil)

	_, err := h.Handle(context.Background(), ClusterStudentsQuery{ActivityID: 3})
	assert.True(t, shared.IsValidation(err))
}

// ─────────────────────────────────────────────────────────────────────────────
// GetInsightHistory
// ─────────────────────────────────────────────────────────────────────────────

func TestGetInsightHistory_ReturnsPage(t *testing.T) {
	insights := &stubInsights{history: []insight.Insight{
		{ModelType: insight.ModelTypeDropoutRisk},
		{ModelType: insight.ModelTypeDropoutRisk},
	}}
	h := NewGetInsightHistoryHandler(insights)

	result, err := h.Handle(context.Background(), GetInsightHistoryQuery{
		StudentID: 7,
		ModelType: insight.ModelTypeDropoutRisk,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
}

func TestGetInsightHistory_RejectsUnknownModelType(t *testing.T) {
	h := NewGetInsightHistoryHandler(&stubInsights{})

	_, err := h.Handle(context.Background(), GetInsightHistoryQuery{ModelType: "astrology"})
	assert.True(t, shared.IsValidation(err))
}
