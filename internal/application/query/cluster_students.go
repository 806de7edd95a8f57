package query

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/cluster"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/insight"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"
	"github.com/dharanesh-gopal/extra-curricular-module/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLUSTER STUDENTS QUERY
// Partitions an activity's cohort into performance/engagement groups, from an
// inline cohort or from stored enrollment data.
// ══════════════════════════════════════════════════════════════════════════════

// ClusterStudentsQuery holds the request parameters. Either StudentData is
// supplied inline, or ActivityID identifies the cohort to load.
type ClusterStudentsQuery struct {
	// ActivityID identifies the activity for lookup mode.
	ActivityID int64 `json:"activity_id"`

	// StudentData is the inline cohort.
	StudentData []cluster.Member `json:"student_data,omitempty"`
}

// Validate checks the request parameters. An inline cohort must be
// non-empty; there is nothing to partition otherwise.
func (q *ClusterStudentsQuery) Validate() error {
	if q.StudentData != nil {
		if len(q.StudentData) == 0 {
			return shared.ErrCohortRequired
		}
		return nil
	}
	if q.ActivityID <= 0 {
		return shared.ErrCohortRequired
	}
	return nil
}

// ClusterStudentsResult is the cohort partition returned to the caller.
type ClusterStudentsResult struct {
	cluster.Result

	// ActivityID echoes the lookup scope; zero for inline requests.
	ActivityID int64 `json:"activity_id,omitempty"`

	// ModelType names the clustering path.
	ModelType string `json:"model_type"`

	// GeneratedAt is when the partition was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// ClusterStudentsHandler handles cohort-clustering queries.
type ClusterStudentsHandler struct {
	clusterer *cluster.Clusterer
	cohorts   cluster.CohortSource
	insights  insight.Repository
	cache     insight.ResultCache
	log       *logger.Logger
}

// NewClusterStudentsHandler creates a new handler.
func NewClusterStudentsHandler(
	clusterer *cluster.Clusterer,
	cohorts cluster.CohortSource,
	insights insight.Repository,
	cache insight.ResultCache,
	log *logger.Logger,
) *ClusterStudentsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &ClusterStudentsHandler{
		clusterer: clusterer,
		cohorts:   cohorts,
		insights:  insights,
		cache:     cache,
		log:       log,
	}
}

// Handle partitions the cohort and records the insight.
func (h *ClusterStudentsHandler) Handle(ctx context.Context, query ClusterStudentsQuery) (*ClusterStudentsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	digest, cached := h.fromCache(ctx, query)
	if cached != nil {
		return cached, nil
	}

	cohort, err := h.resolveCohort(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(cohort) == 0 {
		return nil, shared.ErrCohortRequired
	}

	result := &ClusterStudentsResult{
		Result:      h.clusterer.Cluster(cohort),
		ActivityID:  query.ActivityID,
		ModelType:   insight.ModelTypeStudentClustering,
		GeneratedAt: time.Now().UTC(),
	}

	h.record(ctx, query, result)
	if h.cache != nil && digest != "" {
		h.cache.StoreResult(ctx, insight.ModelTypeStudentClustering, digest, result)
	}

	return result, nil
}

// resolveCohort returns the inline cohort or loads it from storage.
func (h *ClusterStudentsHandler) resolveCohort(ctx context.Context, query ClusterStudentsQuery) ([]cluster.Member, error) {
	if query.StudentData != nil {
		return query.StudentData, nil
	}
	if h.cohorts == nil {
		return nil, shared.NewDomainError("query", "ClusterStudents",
			shared.ErrValidation, "cohort lookup is not available, supply student_data")
	}
	cohort, err := h.cohorts.ActivityCohort(ctx, query.ActivityID)
	if err != nil {
		return nil, shared.WrapError("query", "ClusterStudents",
			shared.ErrExternalService, "failed to load activity cohort", err)
	}
	return cohort, nil
}

// record persists the insight, best-effort.
func (h *ClusterStudentsHandler) record(ctx context.Context, query ClusterStudentsQuery, result *ClusterStudentsResult) {
	if h.insights == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		h.log.Warn("failed to encode clustering insight", logger.Err(err))
		return
	}

	ins := &insight.Insight{
		ActivityID: insight.ActivityRef(query.ActivityID),
		ModelType:  insight.ModelTypeStudentClustering,
		Result:     payload,
	}
	if err := h.insights.Save(ctx, ins); err != nil {
		h.log.Warn("failed to save clustering insight",
			logger.ActivityID(query.ActivityID), logger.Err(err))
	}
}

// fromCache checks the result cache.
func (h *ClusterStudentsHandler) fromCache(ctx context.Context, query ClusterStudentsQuery) (string, *ClusterStudentsResult) {
	if h.cache == nil {
		return "", nil
	}

	digest, err := requestDigest(query)
	if err != nil {
		return "", nil
	}

	raw, ok := h.cache.GetResult(ctx, insight.ModelTypeStudentClustering, digest)
	if !ok {
		return digest, nil
	}

	var result ClusterStudentsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return digest, nil
	}
	return digest, &result
}
