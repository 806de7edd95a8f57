// Package query contains read operations (CQRS - Queries).
//
// Each analysis is a query: it computes a result from engine input without
// changing platform state. The input arrives either inline in the request
// (the caller already has the data) or as identifiers the handler resolves
// against stored engagement data. Persisting the computed insight is a
// side-channel, never a precondition of answering.
package query

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/insight"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/risk"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"
	"github.com/dharanesh-gopal/extra-curricular-module/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREDICT DROPOUT QUERY
// Scores a student's dropout risk for one activity, from an inline snapshot
// or from stored engagement data.
// ══════════════════════════════════════════════════════════════════════════════

// PredictDropoutQuery holds the request parameters. Either StudentData is
// supplied inline, or StudentID+ActivityID identify the enrollment to
// assemble the snapshot from.
type PredictDropoutQuery struct {
	// StudentID identifies the student for lookup mode (optional with inline data).
	StudentID int64 `json:"student_id"`

	// ActivityID identifies the activity for lookup mode.
	ActivityID int64 `json:"activity_id"`

	// StudentData is the inline engagement snapshot.
	StudentData *risk.Snapshot `json:"student_data,omitempty"`
}

// Validate checks the request parameters.
func (q *PredictDropoutQuery) Validate() error {
	if q.StudentData != nil {
		return nil
	}
	if q.StudentID <= 0 || q.ActivityID <= 0 {
		return shared.ErrSnapshotRequired
	}
	return nil
}

// PredictDropoutResult is the scored risk prediction returned to the caller.
type PredictDropoutResult struct {
	risk.Prediction

	// StudentID and ActivityID echo the lookup scope; zero for inline requests.
	StudentID  int64 `json:"student_id,omitempty"`
	ActivityID int64 `json:"activity_id,omitempty"`

	// ModelType names the scoring path.
	ModelType string `json:"model_type"`

	// GeneratedAt is when the prediction was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// PredictDropoutHandler handles dropout-risk queries.
type PredictDropoutHandler struct {
	scorer    *risk.Scorer
	snapshots risk.SnapshotSource
	insights  insight.Repository
	cache     insight.ResultCache
	log       *logger.Logger
}

// NewPredictDropoutHandler creates a new handler. The snapshot source may be
// nil when lookup mode is not wired; insights and cache are optional
// side-channels.
func NewPredictDropoutHandler(
	scorer *risk.Scorer,
	snapshots risk.SnapshotSource,
	insights insight.Repository,
	cache insight.ResultCache,
	log *logger.Logger,
) *PredictDropoutHandler {
	if log == nil {
		log = logger.Default()
	}
	return &PredictDropoutHandler{
		scorer:    scorer,
		snapshots: snapshots,
		insights:  insights,
		cache:     cache,
		log:       log,
	}
}

// Handle scores the snapshot and records the insight.
func (h *PredictDropoutHandler) Handle(ctx context.Context, query PredictDropoutQuery) (*PredictDropoutResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	if !h.scorer.Ready() {
		return nil, shared.NewDomainError("risk", "Score", shared.ErrModelNotReady, "risk engine not ready")
	}

	digest, cached := h.fromCache(ctx, query)
	if cached != nil {
		return cached, nil
	}

	snapshot, err := h.resolveSnapshot(ctx, query)
	if err != nil {
		return nil, err
	}

	result := &PredictDropoutResult{
		Prediction:  h.scorer.Score(snapshot),
		StudentID:   query.StudentID,
		ActivityID:  query.ActivityID,
		ModelType:   insight.ModelTypeDropoutRisk,
		GeneratedAt: time.Now().UTC(),
	}

	h.record(ctx, query, result)
	if h.cache != nil && digest != "" {
		h.cache.StoreResult(ctx, insight.ModelTypeDropoutRisk, digest, result)
	}

	return result, nil
}

// resolveSnapshot returns the inline snapshot or assembles one from storage.
func (h *PredictDropoutHandler) resolveSnapshot(ctx context.Context, query PredictDropoutQuery) (risk.Snapshot, error) {
	if query.StudentData != nil {
		return *query.StudentData, nil
	}
	if h.snapshots == nil {
		return risk.Snapshot{}, shared.NewDomainError("query", "PredictDropout",
			shared.ErrValidation, "student lookup is not available, supply student_data")
	}
	snapshot, err := h.snapshots.RiskSnapshot(ctx, query.StudentID, query.ActivityID)
	if err != nil {
		if shared.IsNotFound(err) {
			return risk.Snapshot{}, err
		}
		return risk.Snapshot{}, shared.WrapError("query", "PredictDropout",
			shared.ErrExternalService, "failed to assemble snapshot", err)
	}
	return snapshot, nil
}

// record persists the insight. Best-effort: failures are logged, never
// surfaced to the caller.
func (h *PredictDropoutHandler) record(ctx context.Context, query PredictDropoutQuery, result *PredictDropoutResult) {
	if h.insights == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		h.log.Warn("failed to encode dropout insight", logger.Err(err))
		return
	}

	ins := &insight.Insight{
		StudentID:          insight.StudentRef(query.StudentID),
		ActivityID:         insight.ActivityRef(query.ActivityID),
		ModelType:          insight.ModelTypeDropoutRisk,
		Result:             payload,
		Confidence:         insight.ConfidenceRef(result.Confidence),
		RiskLevel:          string(result.RiskLevel),
		RecommendedActions: result.RecommendedAction,
	}
	if err := h.insights.Save(ctx, ins); err != nil {
		h.log.Warn("failed to save dropout insight",
			logger.StudentID(query.StudentID), logger.Err(err))
	}
}

// fromCache checks the result cache. Returns the request digest (empty when
// caching is off) and the cached result if present.
func (h *PredictDropoutHandler) fromCache(ctx context.Context, query PredictDropoutQuery) (string, *PredictDropoutResult) {
	if h.cache == nil {
		return "", nil
	}

	digest, err := requestDigest(query)
	if err != nil {
		return "", nil
	}

	raw, ok := h.cache.GetResult(ctx, insight.ModelTypeDropoutRisk, digest)
	if !ok {
		return digest, nil
	}

	var result PredictDropoutResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return digest, nil
	}
	return digest, &result
}
