// Package jobs contains implementations of scheduled jobs for the student
// analytics service.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/cluster"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/insight"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD COHORT INSIGHTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// CohortLister lists the activities whose cohorts should be re-clustered and
// loads each cohort's engagement snapshot.
type CohortLister interface {
	ActiveActivityIDs(ctx context.Context) ([]int64, error)
	ActivityCohort(ctx context.Context, activityID int64) ([]cluster.Member, error)
}

// CohortInsightStore caches a clustering result per activity so dashboard
// reads do not trigger recomputation.
type CohortInsightStore interface {
	StoreCohortInsight(ctx context.Context, activityID int64, result any)
}

// RebuildCohortInsightsJob re-clusters every active activity's cohort and
// warms the per-activity insight cache. Clustering is the only engine whose
// input grows with cohort size, so results are precomputed off the request
// path and optionally persisted to the prediction history.
type RebuildCohortInsightsJob struct {
	// Dependencies
	clusterer *cluster.Clusterer
	cohorts   CohortLister
	store     CohortInsightStore
	insights  insight.Repository
	logger    *slog.Logger

	// Configuration
	config RebuildCohortInsightsConfig

	// State
	lastRunStats atomic.Value // *CohortRebuildStats
}

// RebuildCohortInsightsConfig contains configuration for the rebuild job.
type RebuildCohortInsightsConfig struct {
	// MinCohortSize skips activities with fewer active students.
	MinCohortSize int

	// PersistInsights also writes each result to the prediction history.
	PersistInsights bool

	// MaxActivities caps the number of activities processed per run (0 = all).
	MaxActivities int

	// Timeout is the maximum duration for a full rebuild run.
	Timeout time.Duration
}

// DefaultRebuildCohortInsightsConfig returns sensible defaults.
func DefaultRebuildCohortInsightsConfig() RebuildCohortInsightsConfig {
	return RebuildCohortInsightsConfig{
		MinCohortSize:   2,
		PersistInsights: false,
		MaxActivities:   0,
		Timeout:         5 * time.Minute,
	}
}

// CohortRebuildStats contains statistics from a rebuild run.
type CohortRebuildStats struct {
	StartedAt         time.Time
	CompletedAt       time.Time
	Duration          time.Duration
	ActivitiesFound   int
	CohortsClustered  int
	CohortsSkipped    int
	StudentsClustered int
	InsightsPersisted int
	Errors            []error
}

// NewRebuildCohortInsightsJob creates a new rebuild cohort insights job.
func NewRebuildCohortInsightsJob(
	clusterer *cluster.Clusterer,
	cohorts CohortLister,
	store CohortInsightStore,
	insights insight.Repository,
	logger *slog.Logger,
	config RebuildCohortInsightsConfig,
) *RebuildCohortInsightsJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &RebuildCohortInsightsJob{
		clusterer: clusterer,
		cohorts:   cohorts,
		store:     store,
		insights:  insights,
		logger:    logger,
		config:    config,
	}
}

// Name returns the job name.
func (j *RebuildCohortInsightsJob) Name() string {
	return "rebuild_cohort_insights"
}

// Description returns a human-readable description.
func (j *RebuildCohortInsightsJob) Description() string {
	return "Re-clusters active activity cohorts and warms the cohort insight cache"
}

// Run executes the rebuild job.
func (j *RebuildCohortInsightsJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &CohortRebuildStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting rebuild_cohort_insights job")

	// Apply timeout
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	ids, err := j.cohorts.ActiveActivityIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active activities: %w", err)
	}

	if j.config.MaxActivities > 0 && len(ids) > j.config.MaxActivities {
		ids = ids[:j.config.MaxActivities]
	}

	stats.ActivitiesFound = len(ids)
	j.logger.Info("found active activities", "count", stats.ActivitiesFound)

	for _, activityID := range ids {
		select {
		case <-ctx.Done():
			stats.Errors = append(stats.Errors, ctx.Err())
			j.finish(stats)
			return ctx.Err()
		default:
		}

		if err := j.rebuildOne(ctx, activityID, stats); err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("activity %d: %w", activityID, err))
			j.logger.Error("cohort rebuild failed",
				"activity_id", activityID,
				"error", err,
			)
		}
	}

	j.finish(stats)

	j.logger.Info("rebuild_cohort_insights job completed",
		"duration", stats.Duration.String(),
		"clustered", stats.CohortsClustered,
		"skipped", stats.CohortsSkipped,
		"students", stats.StudentsClustered,
		"errors", len(stats.Errors),
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("rebuild completed with %d errors, first: %w",
			len(stats.Errors), stats.Errors[0])
	}
	return nil
}

// rebuildOne loads, clusters, and caches a single activity's cohort.
func (j *RebuildCohortInsightsJob) rebuildOne(ctx context.Context, activityID int64, stats *CohortRebuildStats) error {
	cohort, err := j.cohorts.ActivityCohort(ctx, activityID)
	if err != nil {
		return fmt.Errorf("failed to load cohort: %w", err)
	}

	if len(cohort) < j.config.MinCohortSize {
		stats.CohortsSkipped++
		return nil
	}

	result := j.clusterer.Cluster(cohort)

	if j.store != nil {
		j.store.StoreCohortInsight(ctx, activityID, result)
	}

	if j.config.PersistInsights && j.insights != nil {
		if err := j.persist(ctx, activityID, result); err != nil {
			return err
		}
		stats.InsightsPersisted++
	}

	stats.CohortsClustered++
	stats.StudentsClustered += len(cohort)
	return nil
}

// persist writes the clustering result to the prediction history.
func (j *RebuildCohortInsightsJob) persist(ctx context.Context, activityID int64, result cluster.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode clustering result: %w", err)
	}

	ins := &insight.Insight{
		ActivityID: insight.ActivityRef(activityID),
		ModelType:  insight.ModelTypeStudentClustering,
		Result:     payload,
	}
	if err := j.insights.Save(ctx, ins); err != nil {
		return fmt.Errorf("failed to persist clustering insight: %w", err)
	}
	return nil
}

// finish stamps completion fields and publishes the stats.
func (j *RebuildCohortInsightsJob) finish(stats *CohortRebuildStats) {
	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
	j.lastRunStats.Store(stats)
}

// LastRunStats returns statistics from the most recent run, or nil if the
// job has not run yet.
func (j *RebuildCohortInsightsJob) LastRunStats() *CohortRebuildStats {
	v := j.lastRunStats.Load()
	if v == nil {
		return nil
	}
	return v.(*CohortRebuildStats)
}
