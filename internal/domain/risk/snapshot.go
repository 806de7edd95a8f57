// Package risk implements the dropout-risk scoring engine.
//
// The engine maps a student's attendance/performance/engagement snapshot to a
// risk score in [0,1], a risk tier, the contributing factors, and a
// recommended intervention. Scoring is purely rule-based: an additive weighted
// ladder over three independent factors evaluated in fixed order. The trained
// classifier artifact (see internal/infrastructure/model) is a separate,
// optional extension point consulted only by the readiness probe.
package risk

import (
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// INPUT SNAPSHOT
// ═══════════════════════════════════════════════════════════════════════════

// Snapshot is a student's current engagement snapshot. It is transient:
// constructed per request from caller input and never persisted by the engine.
//
// Missing numeric fields default to zero, which biases the result toward
// "high risk". This is the intended fail-safe: a student we know nothing
// about looks like a student who never shows up.
type Snapshot struct {
	// AttendancePercentage is the share of sessions attended, 0-100.
	AttendancePercentage float64 `json:"attendance_percentage"`

	// AverageScore is the mean evaluation score, 0-100.
	AverageScore float64 `json:"average_score"`

	// TotalSessions is the number of sessions recorded for the student.
	TotalSessions int `json:"total_sessions"`

	// DaysEnrolled is the number of days since enrollment.
	DaysEnrolled int `json:"days_enrolled"`
}

// Normalized returns a copy with attendance and score clamped to [0,100] and
// negative counters zeroed.
func (s Snapshot) Normalized() Snapshot {
	out := s
	out.AttendancePercentage = shared.Clamp(s.AttendancePercentage, 0, 100)
	out.AverageScore = shared.Clamp(s.AverageScore, 0, 100)
	if out.TotalSessions < 0 {
		out.TotalSessions = 0
	}
	if out.DaysEnrolled < 0 {
		out.DaysEnrolled = 0
	}
	return out
}
