// Package cluster implements the cohort clustering engine.
//
// A cohort of students is partitioned into performance/engagement groups:
// similarity clustering (seeded k-means over standardized features) when the
// sample size permits, else deterministic threshold bucketing. Each group is
// characterized with a human-readable profile. Feature scaling is a pure,
// call-local operation: scaling parameters are computed from the current
// call's batch and discarded, so concurrent calls never interfere.
package cluster

import (
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"
)

// Member is one student in the cohort submitted for clustering.
type Member struct {
	// StudentID identifies the student.
	StudentID int64 `json:"student_id"`

	// StudentName is the display name.
	StudentName string `json:"student_name"`

	// AttendancePercentage is the share of sessions attended, 0-100.
	AttendancePercentage float64 `json:"attendance_percentage"`

	// AverageScore is the mean evaluation score, 0-100.
	AverageScore float64 `json:"average_score"`

	// SkillLevel is the ordinal proficiency tier. Unknown values rank as
	// beginner.
	SkillLevel shared.SkillLevel `json:"skill_level"`
}

// features returns the member's 3-dimensional feature vector:
// [attendance, score, skill ordinal], with attendance and score clamped.
func (m Member) features() []float64 {
	return []float64{
		shared.Clamp(m.AttendancePercentage, 0, 100),
		shared.Clamp(m.AverageScore, 0, 100),
		m.SkillLevel.Ordinal(),
	}
}

// combinedMetric is the mean of attendance and score, the classification
// signal shared by both grouping regimes.
func (m Member) combinedMetric() float64 {
	return (shared.Clamp(m.AverageScore, 0, 100) + shared.Clamp(m.AttendancePercentage, 0, 100)) / 2
}

// MemberInfo is the member record echoed in cluster output.
type MemberInfo struct {
	// StudentID identifies the student.
	StudentID int64 `json:"student_id"`

	// StudentName is the display name.
	StudentName string `json:"student_name"`

	// Attendance is the clamped attendance percentage.
	Attendance float64 `json:"attendance"`

	// Score is the clamped average score.
	Score float64 `json:"score"`

	// SkillLevel is the reported proficiency tier.
	SkillLevel shared.SkillLevel `json:"skill_level"`

	// Cluster is the numeric cluster index. Only meaningful in the k-means
	// regime; -1 in the threshold regime.
	Cluster int `json:"cluster,omitempty"`
}

func memberInfo(m Member) MemberInfo {
	level := m.SkillLevel
	if level == "" {
		level = shared.SkillBeginner
	}
	return MemberInfo{
		StudentID:   m.StudentID,
		StudentName: m.StudentName,
		Attendance:  shared.Clamp(m.AttendancePercentage, 0, 100),
		Score:       shared.Clamp(m.AverageScore, 0, 100),
		SkillLevel:  level,
		Cluster:     -1,
	}
}
