package query

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/insight"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/recommend"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"
	"github.com/dharanesh-gopal/extra-curricular-module/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMMEND ACTIVITY QUERY
// Derives a student's category preferences from their enrollment history and
// suggests activities to try next.
// ══════════════════════════════════════════════════════════════════════════════

// RecommendActivityQuery holds the request parameters. EnrollmentHistory may
// be supplied inline; when absent it is loaded for the student. An empty
// history is valid and produces onboarding suggestions.
type RecommendActivityQuery struct {
	// StudentID identifies the student.
	StudentID int64 `json:"student_id"`

	// EnrollmentHistory is the inline per-activity engagement summary.
	EnrollmentHistory []recommend.Enrollment `json:"enrollment_history,omitempty"`
}

// Validate checks the request parameters.
func (q *RecommendActivityQuery) Validate() error {
	if q.StudentID <= 0 {
		return shared.ErrStudentIDRequired
	}
	return nil
}

// RecommendActivityResult is the suggestion set returned to the caller.
type RecommendActivityResult struct {
	recommend.Result

	// StudentID echoes the subject of the recommendation.
	StudentID int64 `json:"student_id"`

	// ModelType names the recommendation path.
	ModelType string `json:"model_type"`

	// GeneratedAt is when the recommendation was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// RecommendActivityHandler handles activity-recommendation queries.
type RecommendActivityHandler struct {
	recommender *recommend.Recommender
	enrollments recommend.EnrollmentSource
	insights    insight.Repository
	cache       insight.ResultCache
	log         *logger.Logger
}

// NewRecommendActivityHandler creates a new handler.
func NewRecommendActivityHandler(
	recommender *recommend.Recommender,
	enrollments recommend.EnrollmentSource,
	insights insight.Repository,
	cache insight.ResultCache,
	log *logger.Logger,
) *RecommendActivityHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecommendActivityHandler{
		recommender: recommender,
		enrollments: enrollments,
		insights:    insights,
		cache:       cache,
		log:         log,
	}
}

// Handle derives suggestions and records the insight.
func (h *RecommendActivityHandler) Handle(ctx context.Context, query RecommendActivityQuery) (*RecommendActivityResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	digest, cached := h.fromCache(ctx, query)
	if cached != nil {
		return cached, nil
	}

	history, err := h.resolveHistory(ctx, query)
	if err != nil {
		return nil, err
	}

	result := &RecommendActivityResult{
		Result:      h.recommender.Recommend(history),
		StudentID:   query.StudentID,
		ModelType:   insight.ModelTypeActivityRecommendation,
		GeneratedAt: time.Now().UTC(),
	}

	h.record(ctx, query, result)
	if h.cache != nil && digest != "" {
		h.cache.StoreResult(ctx, insight.ModelTypeActivityRecommendation, digest, result)
	}

	return result, nil
}

// resolveHistory returns the inline history, loads it from storage, or falls
// back to an empty history when lookup is not wired.
func (h *RecommendActivityHandler) resolveHistory(ctx context.Context, query RecommendActivityQuery) ([]recommend.Enrollment, error) {
	if query.EnrollmentHistory != nil {
		return query.EnrollmentHistory, nil
	}
	if h.enrollments == nil {
		// No inline history and no store: treat as a new student.
		return nil, nil
	}
	history, err := h.enrollments.EnrollmentHistory(ctx, query.StudentID)
	if err != nil {
		return nil, shared.WrapError("query", "RecommendActivity",
			shared.ErrExternalService, "failed to load enrollment history", err)
	}
	return history, nil
}

// record persists the insight, best-effort.
func (h *RecommendActivityHandler) record(ctx context.Context, query RecommendActivityQuery, result *RecommendActivityResult) {
	if h.insights == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		h.log.Warn("failed to encode recommendation insight", logger.Err(err))
		return
	}

	ins := &insight.Insight{
		StudentID: insight.StudentRef(query.StudentID),
		ModelType: insight.ModelTypeActivityRecommendation,
		Result:    payload,
	}
	if err := h.insights.Save(ctx, ins); err != nil {
		h.log.Warn("failed to save recommendation insight",
			logger.StudentID(query.StudentID), logger.Err(err))
	}
}

// fromCache checks the result cache.
func (h *RecommendActivityHandler) fromCache(ctx context.Context, query RecommendActivityQuery) (string, *RecommendActivityResult) {
	if h.cache == nil {
		return "", nil
	}

	digest, err := requestDigest(query)
	if err != nil {
		return "", nil
	}

	raw, ok := h.cache.GetResult(ctx, insight.ModelTypeActivityRecommendation, digest)
	if !ok {
		return digest, nil
	}

	var result RecommendActivityResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return digest, nil
	}
	return digest, &result
}
