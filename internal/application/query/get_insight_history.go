package query

import (
	"context"
	"time"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/insight"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET INSIGHT HISTORY QUERY
// Returns previously computed and persisted analytics results.
// ══════════════════════════════════════════════════════════════════════════════

// Known model types, for filter validation.
var knownModelTypes = map[string]bool{
	insight.ModelTypeDropoutRisk:            true,
	insight.ModelTypePerformanceForecast:    true,
	insight.ModelTypeActivityRecommendation: true,
	insight.ModelTypeStudentClustering:      true,
}

// GetInsightHistoryQuery holds the optional history filters.
type GetInsightHistoryQuery struct {
	// StudentID filters by student (0 = any).
	StudentID int64 `json:"student_id"`

	// ActivityID filters by activity (0 = any).
	ActivityID int64 `json:"activity_id"`

	// ModelType filters by model type (empty = any).
	ModelType string `json:"model_type"`

	// Limit is the page size (default 10, capped at 100).
	Limit int `json:"limit"`
}

// Validate checks the filters.
func (q *GetInsightHistoryQuery) Validate() error {
	if q.StudentID < 0 || q.ActivityID < 0 || q.Limit < 0 {
		return shared.NewDomainError("query", "GetInsightHistory",
			shared.ErrNegativeValue, "filters cannot be negative")
	}
	if q.ModelType != "" && !knownModelTypes[q.ModelType] {
		return shared.NewDomainError("query", "GetInsightHistory",
			shared.ErrInvalidInput, "unknown model_type")
	}
	return nil
}

// GetInsightHistoryResult is the page of persisted insights.
type GetInsightHistoryResult struct {
	// Insights is the matching page, newest first.
	Insights []insight.Insight `json:"predictions"`

	// Count is the number of returned insights.
	Count int `json:"count"`

	// GeneratedAt is when the page was read.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetInsightHistoryHandler handles insight-history queries.
type GetInsightHistoryHandler struct {
	insights insight.Repository
}

// NewGetInsightHistoryHandler creates a new handler.
func NewGetInsightHistoryHandler(insights insight.Repository) *GetInsightHistoryHandler {
	return &GetInsightHistoryHandler{insights: insights}
}

// Handle reads the matching history page.
func (h *GetInsightHistoryHandler) Handle(ctx context.Context, query GetInsightHistoryQuery) (*GetInsightHistoryResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	if h.insights == nil {
		return nil, shared.NewDomainError("query", "GetInsightHistory",
			shared.ErrServiceUnavailable, "insight storage is not available")
	}

	insights, err := h.insights.History(ctx, insight.HistoryFilter{
		StudentID:  query.StudentID,
		ActivityID: query.ActivityID,
		ModelType:  query.ModelType,
		Limit:      query.Limit,
	})
	if err != nil {
		return nil, shared.WrapError("query", "GetInsightHistory",
			shared.ErrExternalService, "failed to read insight history", err)
	}

	return &GetInsightHistoryResult{
		Insights:    insights,
		Count:       len(insights),
		GeneratedAt: time.Now().UTC(),
	}, nil
}
