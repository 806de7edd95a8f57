package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/cluster"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/insight"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"
)

type stubCohorts struct {
	ids     []int64
	cohorts map[int64][]cluster.Member
	listErr error
	loadErr map[int64]error
}

func (s *stubCohorts) ActiveActivityIDs(ctx context.Context) ([]int64, error) {
	return s.ids, s.listErr
}

func (s *stubCohorts) ActivityCohort(ctx context.Context, activityID int64) ([]cluster.Member, error) {
	if err := s.loadErr[activityID]; err != nil {
		return nil, err
	}
	return s.cohorts[activityID], nil
}

type stubCohortStore struct {
	stored map[int64]any
}

func (s *stubCohortStore) StoreCohortInsight(ctx context.Context, activityID int64, result any) {
	if s.stored == nil {
		s.stored = make(map[int64]any)
	}
	s.stored[activityID] = result
}

type stubInsightRepo struct {
	saved []*insight.Insight
}

func (s *stubInsightRepo) Save(ctx context.Context, ins *insight.Insight) error {
	s.saved = append(s.saved, ins)
	return nil
}

func (s *stubInsightRepo) History(ctx context.Context, filter insight.HistoryFilter) ([]insight.Insight, error) {
	return nil, nil
}

func member(id int64, attendance, score float64) cluster.Member {
	return cluster.Member{
		StudentID:            id,
		StudentName:          "Student",
		AttendancePercentage: attendance,
		AverageScore:         score,
		SkillLevel:           shared.SkillBeginner,
	}
}

func TestRebuildCohortInsightsJob_Run(t *testing.T) {
	cohorts := &stubCohorts{
		ids: []int64{1, 2, 3},
		cohorts: map[int64][]cluster.Member{
			1: {member(10, 90, 85), member(11, 40, 35)},
			2: {member(20, 70, 60)}, // below MinCohortSize
			3: {member(30, 95, 90), member(31, 55, 50), member(32, 80, 75)},
		},
	}
	store := &stubCohortStore{}
	repo := &stubInsightRepo{}

	cfg := DefaultRebuildCohortInsightsConfig()
	cfg.PersistInsights = true

	job := NewRebuildCohortInsightsJob(cluster.NewClusterer(), cohorts, store, repo, nil, cfg)

	err := job.Run(context.Background())
	require.NoError(t, err)

	stats := job.LastRunStats()
	require.NotNil(t, stats)
	assert.Equal(t, 3, stats.ActivitiesFound)
	assert.Equal(t, 2, stats.CohortsClustered)
	assert.Equal(t, 1, stats.CohortsSkipped)
	assert.Equal(t, 5, stats.StudentsClustered)
	assert.Equal(t, 2, stats.InsightsPersisted)
	assert.Empty(t, stats.Errors)

	// Skipped activity must not be cached.
	assert.Contains(t, store.stored, int64(1))
	assert.Contains(t, store.stored, int64(3))
	assert.NotContains(t, store.stored, int64(2))

	require.Len(t, repo.saved, 2)
	assert.Equal(t, insight.ModelTypeStudentClustering, repo.saved[0].ModelType)
	require.NotNil(t, repo.saved[0].ActivityID)
	assert.Equal(t, int64(1), *repo.saved[0].ActivityID)
}

func TestRebuildCohortInsightsJob_PartialFailure(t *testing.T) {
	cohorts := &stubCohorts{
		ids: []int64{1, 2},
		cohorts: map[int64][]cluster.Member{
			2: {member(20, 90, 85), member(21, 40, 35)},
		},
		loadErr: map[int64]error{1: errors.New("connection reset")},
	}
	store := &stubCohortStore{}

	job := NewRebuildCohortInsightsJob(cluster.NewClusterer(), cohorts, store, nil, nil,
		DefaultRebuildCohortInsightsConfig())

	err := job.Run(context.Background())
	require.Error(t, err)

	// The failing activity must not stop the rest of the run.
	stats := job.LastRunStats()
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.CohortsClustered)
	assert.Len(t, stats.Errors, 1)
	assert.Contains(t, store.stored, int64(2))
}

func TestRebuildCohortInsightsJob_ListFailure(t *testing.T) {
	cohorts := &stubCohorts{listErr: errors.New("timeout")}

	job := NewRebuildCohortInsightsJob(cluster.NewClusterer(), cohorts, nil, nil, nil,
		DefaultRebuildCohortInsightsConfig())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list active activities")
}

type stubPruner struct {
	removed int64
	err     error
	cutoff  time.Time
}

func (s *stubPruner) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.removed, s.err
}

func TestPruneInsightsJob_Run(t *testing.T) {
	pruner := &stubPruner{removed: 42}

	cfg := PruneInsightsConfig{RetentionDays: 30, Timeout: time.Minute}
	job := NewPruneInsightsJob(pruner, nil, cfg)

	err := job.Run(context.Background())
	require.NoError(t, err)

	// Cutoff must honor the configured retention window.
	expected := time.Now().UTC().AddDate(0, 0, -30)
	assert.WithinDuration(t, expected, pruner.cutoff, time.Minute)
}

func TestPruneInsightsJob_Error(t *testing.T) {
	pruner := &stubPruner{err: errors.New("deadlock detected")}

	job := NewPruneInsightsJob(pruner, nil, DefaultPruneInsightsConfig())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to prune insights")
}
