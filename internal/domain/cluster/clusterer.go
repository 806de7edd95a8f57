package cluster

import (
	"fmt"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"

	"gonum.org/v1/gonum/stat"
)

// ═══════════════════════════════════════════════════════════════════════════
// GROUPING MODES AND RESULT RECORDS
// ═══════════════════════════════════════════════════════════════════════════

// GroupingMode discriminates the two bucket-key schemes so callers can
// pattern-match instead of guessing key names.
type GroupingMode string

const (
	// GroupingThreshold is the small-cohort regime: fixed semantic bucket
	// names (high_performers / average_performers / needs_support).
	GroupingThreshold GroupingMode = "threshold"

	// GroupingKMeans is the similarity regime: keys are cluster_0..cluster_{k-1}.
	GroupingKMeans GroupingMode = "kmeans"
)

// Fixed bucket keys used by the threshold regime.
const (
	BucketHighPerformers    = "high_performers"
	BucketAveragePerformers = "average_performers"
	BucketNeedsSupport      = "needs_support"
)

// MinKMeansCohort is the smallest cohort the similarity regime handles.
const MinKMeansCohort = 3

// maxClusters caps k; the cohort is partitioned into min(3, n) clusters.
const maxClusters = 3

// GroupProfile characterizes one group of students.
type GroupProfile struct {
	// Name is the human-readable group name.
	Name string `json:"name"`

	// Description summarizes the group.
	Description string `json:"description"`

	// AvgAttendance is the group's mean attendance in original units (0 if
	// the group is empty).
	AvgAttendance float64 `json:"avg_attendance"`

	// AvgScore is the group's mean score in original units (0 if empty).
	AvgScore float64 `json:"avg_score"`

	// AvgSkillLevel is the group's mean skill ordinal. K-means regime only.
	AvgSkillLevel float64 `json:"avg_skill_level,omitempty"`

	// StudentCount is the group size. K-means regime only.
	StudentCount int `json:"student_count,omitempty"`

	// Recommendations is the intervention guidance for the group.
	Recommendations string `json:"recommendations"`
}

// Result is the full clustering output for one cohort.
type Result struct {
	// Grouping names the regime that produced the keys.
	Grouping GroupingMode `json:"grouping"`

	// Clusters maps group key to its member list. Threshold regime always
	// carries exactly the three fixed bucket keys (possibly empty lists);
	// the k-means regime carries cluster_0..cluster_{k-1}, all non-empty.
	Clusters map[string][]MemberInfo `json:"clusters"`

	// Descriptions maps group key to its profile. The threshold regime
	// describes all three buckets; the k-means regime describes each cluster.
	Descriptions map[string]GroupProfile `json:"descriptions"`

	// TotalStudents is the cohort size.
	TotalStudents int `json:"total_students"`

	// NumClusters is the number of groups (3 for threshold, k for k-means).
	NumClusters int `json:"n_clusters"`
}

// ═══════════════════════════════════════════════════════════════════════════
// CLUSTERER
// ═══════════════════════════════════════════════════════════════════════════

// Clusterer is the cohort clustering engine. Stateless per call: all scaling
// and partition state lives on the stack of a single Cluster invocation.
type Clusterer struct{}

// NewClusterer creates a Clusterer.
func NewClusterer() *Clusterer {
	return &Clusterer{}
}

// Ready reports engine readiness. The clusterer has no model artifact.
func (c *Clusterer) Ready() bool { return true }

// Cluster partitions the cohort. Cohorts smaller than MinKMeansCohort use
// threshold bucketing; larger cohorts use seeded k-means over standardized
// features. Identical cohorts always produce identical results.
func (c *Clusterer) Cluster(cohort []Member) Result {
	if len(cohort) < MinKMeansCohort {
		return thresholdGrouping(cohort)
	}
	return kmeansGrouping(cohort)
}

// ─────────────────────────────────────────────────────────────────────────────
// Threshold regime (cohort < 3)
// ─────────────────────────────────────────────────────────────────────────────

// thresholdGrouping buckets members on the combined metric: >=75 high,
// >=50 average, else needs support. All three buckets are always present.
func thresholdGrouping(cohort []Member) Result {
	clusters := map[string][]MemberInfo{
		BucketHighPerformers:    {},
		BucketAveragePerformers: {},
		BucketNeedsSupport:      {},
	}

	for _, m := range cohort {
		key := bucketFor(m.combinedMetric())
		clusters[key] = append(clusters[key], memberInfo(m))
	}

	descriptions := make(map[string]GroupProfile, 3)
	for _, key := range []string{BucketHighPerformers, BucketAveragePerformers, BucketNeedsSupport} {
		profile := bucketProfile(key)
		profile.AvgScore, profile.AvgAttendance = groupMeans(clusters[key])
		descriptions[key] = profile
	}

	return Result{
		Grouping:      GroupingThreshold,
		Clusters:      clusters,
		Descriptions:  descriptions,
		TotalStudents: len(cohort),
		NumClusters:   3,
	}
}

// bucketFor maps a combined metric onto its fixed bucket key.
func bucketFor(metric float64) string {
	switch {
	case metric >= 75:
		return BucketHighPerformers
	case metric >= 50:
		return BucketAveragePerformers
	default:
		return BucketNeedsSupport
	}
}

// bucketProfile returns the fixed template for a threshold bucket.
func bucketProfile(key string) GroupProfile {
	switch key {
	case BucketHighPerformers:
		return GroupProfile{
			Name:            "High Performers",
			Description:     "Students with excellent attendance and performance",
			Recommendations: "Provide advanced challenges and leadership opportunities",
		}
	case BucketAveragePerformers:
		return GroupProfile{
			Name:            "Average Performers",
			Description:     "Students with moderate performance and engagement",
			Recommendations: "Encourage consistent practice and provide regular feedback",
		}
	default:
		return GroupProfile{
			Name:            "Needs Support",
			Description:     "Students requiring additional attention and resources",
			Recommendations: "Provide personalized support, mentoring, and intervention",
		}
	}
}

// groupMeans returns the mean score and attendance of a member list, zero
// for an empty group.
func groupMeans(members []MemberInfo) (avgScore, avgAttendance float64) {
	if len(members) == 0 {
		return 0, 0
	}
	scores := make([]float64, len(members))
	attendance := make([]float64, len(members))
	for i, m := range members {
		scores[i] = m.Score
		attendance[i] = m.Attendance
	}
	return shared.Round2(stat.Mean(scores, nil)), shared.Round2(stat.Mean(attendance, nil))
}

// ─────────────────────────────────────────────────────────────────────────────
// K-means regime (cohort >= 3)
// ─────────────────────────────────────────────────────────────────────────────

// kmeansGrouping standardizes the cohort's feature vectors (call-local fit),
// partitions into min(3, n) clusters, and characterizes each cluster from its
// members' original, unstandardized metrics.
func kmeansGrouping(cohort []Member) Result {
	points := make([][]float64, len(cohort))
	for i, m := range cohort {
		points[i] = m.features()
	}

	k := maxClusters
	if len(cohort) < k {
		k = len(cohort)
	}

	partition := runKMeans(standardize(points), k)

	clusters := make(map[string][]MemberInfo, k)
	for i, label := range partition.labels {
		key := fmt.Sprintf("cluster_%d", label)
		info := memberInfo(cohort[i])
		info.Cluster = label
		clusters[key] = append(clusters[key], info)
	}

	descriptions := make(map[string]GroupProfile, k)
	for label := 0; label < k; label++ {
		key := fmt.Sprintf("cluster_%d", label)
		members := clusters[key]
		if len(members) == 0 {
			continue
		}
		descriptions[key] = describeCluster(cohort, partition.labels, label, len(members))
	}

	return Result{
		Grouping:      GroupingKMeans,
		Clusters:      clusters,
		Descriptions:  descriptions,
		TotalStudents: len(cohort),
		NumClusters:   k,
	}
}

// describeCluster recomputes the cluster's means in original units and
// classifies it with the same combined-metric thresholds as the threshold
// regime.
func describeCluster(cohort []Member, labels []int, label, size int) GroupProfile {
	var attendance, score, skill []float64
	for i, m := range cohort {
		if labels[i] != label {
			continue
		}
		attendance = append(attendance, shared.Clamp(m.AttendancePercentage, 0, 100))
		score = append(score, shared.Clamp(m.AverageScore, 0, 100))
		skill = append(skill, m.SkillLevel.Ordinal())
	}

	avgAttendance := stat.Mean(attendance, nil)
	avgScore := stat.Mean(score, nil)
	combined := (avgAttendance + avgScore) / 2

	var profile GroupProfile
	switch {
	case combined >= 75:
		profile = GroupProfile{
			Name:            "High Performers",
			Description:     "Students with excellent attendance and performance",
			Recommendations: "Provide advanced challenges, leadership roles, and competition opportunities",
		}
	case combined >= 50:
		profile = GroupProfile{
			Name:            "Average Performers",
			Description:     "Students with moderate performance and engagement",
			Recommendations: "Encourage consistent practice, provide regular feedback, and set achievable goals",
		}
	default:
		profile = GroupProfile{
			Name:            "Needs Support",
			Description:     "Students requiring additional attention and resources",
			Recommendations: "Provide personalized support, one-on-one mentoring, and intervention strategies",
		}
	}

	profile.AvgAttendance = shared.Round2(avgAttendance)
	profile.AvgScore = shared.Round2(avgScore)
	profile.AvgSkillLevel = shared.Round2(stat.Mean(skill, nil))
	profile.StudentCount = size
	return profile
}
