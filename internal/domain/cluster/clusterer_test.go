package cluster

import (
	"fmt"
	"testing"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCluster_SmallCohortUsesFixedBuckets(t *testing.T) {
	cohort := []Member{
		{StudentID: 1, StudentName: "Aruzhan", AttendancePercentage: 95, AverageScore: 90, SkillLevel: shared.SkillAdvanced},
		{StudentID: 2, StudentName: "Daniyar", AttendancePercentage: 40, AverageScore: 35, SkillLevel: shared.SkillBeginner},
	}

	r := NewClusterer().Cluster(cohort)

	assert.Equal(t, GroupingThreshold, r.Grouping)
	assert.Equal(t, 3, r.NumClusters)
	assert.Equal(t, 2, r.TotalStudents)

	// Exactly the three fixed keys, even when a bucket is empty.
	assert.Len(t, r.Clusters, 3)
	assert.Contains(t, r.Clusters, BucketHighPerformers)
	assert.Contains(t, r.Clusters, BucketAveragePerformers)
	assert.Contains(t, r.Clusters, BucketNeedsSupport)

	assert.Len(t, r.Clusters[BucketHighPerformers], 1)
	assert.Len(t, r.Clusters[BucketAveragePerformers], 0)
	assert.Len(t, r.Clusters[BucketNeedsSupport], 1)

	high := r.Descriptions[BucketHighPerformers]
	assert.Equal(t, "High Performers", high.Name)
	assert.Equal(t, 90.0, high.AvgScore)
	assert.Equal(t, 95.0, high.AvgAttendance)

	// Empty bucket carries the template with zeroed means.
	avg := r.Descriptions[BucketAveragePerformers]
	assert.Equal(t, "Average Performers", avg.Name)
	assert.Equal(t, 0.0, avg.AvgScore)
	assert.Equal(t, 0.0, avg.AvgAttendance)
}

func TestCluster_ThresholdBoundaries(t *testing.T) {
	tests := []struct {
		attendance, score float64
		want              string
	}{
		{80, 70, BucketHighPerformers},    // combined 75, boundary inclusive
		{60, 40, BucketAveragePerformers}, // combined 50, boundary inclusive
		{50, 40, BucketNeedsSupport},      // combined 45
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			r := NewClusterer().Cluster([]Member{
				{StudentID: 1, AttendancePercentage: tt.attendance, AverageScore: tt.score},
			})
			assert.Len(t, r.Clusters[tt.want], 1)
		})
	}
}

func sampleCohort() []Member {
	return []Member{
		{StudentID: 1, StudentName: "Aruzhan", AttendancePercentage: 96, AverageScore: 92, SkillLevel: shared.SkillExpert},
		{StudentID: 2, StudentName: "Daniyar", AttendancePercentage: 91, AverageScore: 88, SkillLevel: shared.SkillAdvanced},
		{StudentID: 3, StudentName: "Aigerim", AttendancePercentage: 70, AverageScore: 65, SkillLevel: shared.SkillIntermediate},
		{StudentID: 4, StudentName: "Nurlan", AttendancePercentage: 66, AverageScore: 61, SkillLevel: shared.SkillIntermediate},
		{StudentID: 5, StudentName: "Madina", AttendancePercentage: 38, AverageScore: 30, SkillLevel: shared.SkillBeginner},
		{StudentID: 6, StudentName: "Timur", AttendancePercentage: 42, AverageScore: 35, SkillLevel: shared.SkillBeginner},
	}
}

func TestCluster_KMeansPartition(t *testing.T) {
	cohort := sampleCohort()
	r := NewClusterer().Cluster(cohort)

	assert.Equal(t, GroupingKMeans, r.Grouping)
	assert.Equal(t, 3, r.NumClusters)
	assert.Equal(t, 6, r.TotalStudents)

	// Keys are cluster_0..cluster_{k-1} and every cluster is non-empty.
	require.Len(t, r.Clusters, 3)
	total := 0
	seen := map[int64]int{}
	for label := 0; label < 3; label++ {
		key := fmt.Sprintf("cluster_%d", label)
		members := r.Clusters[key]
		require.NotEmpty(t, members, key)
		total += len(members)
		for _, m := range members {
			seen[m.StudentID]++
			assert.Equal(t, label, m.Cluster)
		}
	}

	// Partition: complete and disjoint.
	assert.Equal(t, len(cohort), total)
	for _, m := range cohort {
		assert.Equal(t, 1, seen[m.StudentID])
	}
}

func TestCluster_KMeansSeparatesObviousGroups(t *testing.T) {
	r := NewClusterer().Cluster(sampleCohort())

	// The three natural tiers in the sample must land in distinct clusters.
	labelOf := map[int64]int{}
	for _, members := range r.Clusters {
		for _, m := range members {
			labelOf[m.StudentID] = m.Cluster
		}
	}
	assert.Equal(t, labelOf[1], labelOf[2])
	assert.Equal(t, labelOf[3], labelOf[4])
	assert.Equal(t, labelOf[5], labelOf[6])
	assert.NotEqual(t, labelOf[1], labelOf[3])
	assert.NotEqual(t, labelOf[3], labelOf[5])
}

func TestCluster_KMeansDescriptionsUseOriginalUnits(t *testing.T) {
	r := NewClusterer().Cluster(sampleCohort())

	names := map[string]bool{}
	for key, members := range r.Clusters {
		profile, ok := r.Descriptions[key]
		require.True(t, ok, key)
		names[profile.Name] = true
		assert.Equal(t, len(members), profile.StudentCount)

		// Means are in original units, not standardized ones.
		assert.GreaterOrEqual(t, profile.AvgScore, 0.0)
		assert.LessOrEqual(t, profile.AvgScore, 100.0)
		assert.GreaterOrEqual(t, profile.AvgSkillLevel, 1.0)
		assert.LessOrEqual(t, profile.AvgSkillLevel, 4.0)
	}

	assert.True(t, names["High Performers"])
	assert.True(t, names["Average Performers"])
	assert.True(t, names["Needs Support"])
}

func TestCluster_CohortOfThreeGetsThreeClusters(t *testing.T) {
	cohort := sampleCohort()[:3]
	r := NewClusterer().Cluster(cohort)

	assert.Equal(t, GroupingKMeans, r.Grouping)
	assert.Equal(t, 3, r.NumClusters)
	for label := 0; label < 3; label++ {
		assert.Len(t, r.Clusters[fmt.Sprintf("cluster_%d", label)], 1)
	}
}

func TestCluster_IdenticalMembersStillPartition(t *testing.T) {
	// Degenerate cohort: all features identical, every dimension constant.
	cohort := []Member{
		{StudentID: 1, AttendancePercentage: 70, AverageScore: 70, SkillLevel: shared.SkillIntermediate},
		{StudentID: 2, AttendancePercentage: 70, AverageScore: 70, SkillLevel: shared.SkillIntermediate},
		{StudentID: 3, AttendancePercentage: 70, AverageScore: 70, SkillLevel: shared.SkillIntermediate},
		{StudentID: 4, AttendancePercentage: 70, AverageScore: 70, SkillLevel: shared.SkillIntermediate},
	}

	r := NewClusterer().Cluster(cohort)

	total := 0
	for label := 0; label < r.NumClusters; label++ {
		members := r.Clusters[fmt.Sprintf("cluster_%d", label)]
		assert.NotEmpty(t, members)
		total += len(members)
	}
	assert.Equal(t, 4, total)
}

func TestCluster_UnknownSkillDefaultsToBeginner(t *testing.T) {
	r := NewClusterer().Cluster([]Member{
		{StudentID: 1, AttendancePercentage: 80, AverageScore: 80, SkillLevel: "wizard"},
	})

	// Threshold path; the echoed member info keeps the raw level while the
	// feature uses the beginner rank.
	members := r.Clusters[BucketHighPerformers]
	require.Len(t, members, 1)
	assert.Equal(t, shared.SkillLevel("wizard"), members[0].SkillLevel)
}

func TestCluster_Idempotent(t *testing.T) {
	cohort := sampleCohort()
	c := NewClusterer()
	first := c.Cluster(cohort)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Cluster(cohort))
	}
}

func TestStandardize_IsCallLocal(t *testing.T) {
	points := [][]float64{{10, 100, 1}, {20, 50, 2}, {30, 0, 3}}
	original := [][]float64{{10, 100, 1}, {20, 50, 2}, {30, 0, 3}}

	scaled := standardize(points)

	// Input untouched; output per-dimension zero mean.
	assert.Equal(t, original, points)
	for d := 0; d < 3; d++ {
		var sum float64
		for _, row := range scaled {
			sum += row[d]
		}
		assert.InDelta(t, 0, sum, 1e-9)
	}
}

func TestStandardize_ConstantDimension(t *testing.T) {
	scaled := standardize([][]float64{{5, 1}, {5, 2}, {5, 3}})
	for _, row := range scaled {
		assert.Equal(t, 0.0, row[0])
	}
}
