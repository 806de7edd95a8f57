package risk

import (
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// FACTORS AND RISK LEVELS
// ═══════════════════════════════════════════════════════════════════════════

// Factor tags a condition that contributed to (or argued against) the risk
// score. Factors are reported in ladder order: attendance, performance,
// engagement.
type Factor string

const (
	FactorLowAttendance       Factor = "low_attendance"
	FactorModerateAttendance  Factor = "moderate_attendance"
	FactorGoodAttendance      Factor = "good_attendance"
	FactorLowPerformance      Factor = "low_performance"
	FactorModeratePerformance Factor = "moderate_performance"
	FactorGoodPerformance     Factor = "good_performance"
	FactorLowEngagement       Factor = "low_engagement"
	FactorModerateEngagement  Factor = "moderate_engagement"
	FactorHighEngagement      Factor = "high_engagement"
)

// Level is the risk tier derived from the additive score.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Recommended interventions per risk tier.
const (
	actionHigh   = "Immediate intervention required. Schedule counseling session, contact parents, and provide additional support."
	actionMedium = "Monitor closely. Provide encouragement and additional resources. Consider peer mentoring."
	actionLow    = "Continue current engagement level. Maintain regular monitoring and positive reinforcement."
)

// ═══════════════════════════════════════════════════════════════════════════
// RULE LADDERS
// ═══════════════════════════════════════════════════════════════════════════

// rung is a single threshold rule: the first rung whose predicate matches
// contributes its weight and tag, and the ladder stops. The final rung of a
// ladder always matches, so every ladder tags exactly one factor.
type rung struct {
	applies func(v float64) bool
	weight  float64
	tag     Factor
}

// evaluate walks the ladder in order and returns the first matching rung's
// contribution.
func evaluate(ladder []rung, v float64) (float64, Factor) {
	for _, r := range ladder {
		if r.applies(v) {
			return r.weight, r.tag
		}
	}
	// Unreachable as long as the last rung is a catch-all.
	return 0, ""
}

// attendanceLadder scores the attendance percentage factor.
var attendanceLadder = []rung{
	{applies: func(v float64) bool { return v < 60 }, weight: 0.4, tag: FactorLowAttendance},
	{applies: func(v float64) bool { return v < 75 }, weight: 0.2, tag: FactorModerateAttendance},
	{applies: func(v float64) bool { return true }, weight: 0, tag: FactorGoodAttendance},
}

// performanceLadder scores the average-score factor.
var performanceLadder = []rung{
	{applies: func(v float64) bool { return v < 50 }, weight: 0.4, tag: FactorLowPerformance},
	{applies: func(v float64) bool { return v < 70 }, weight: 0.2, tag: FactorModeratePerformance},
	{applies: func(v float64) bool { return true }, weight: 0, tag: FactorGoodPerformance},
}

// engagementLadder scores the session-count factor.
var engagementLadder = []rung{
	{applies: func(v float64) bool { return v < 3 }, weight: 0.1, tag: FactorLowEngagement},
	{applies: func(v float64) bool { return v < 5 }, weight: 0.05, tag: FactorModerateEngagement},
	{applies: func(v float64) bool { return true }, weight: 0, tag: FactorHighEngagement},
}

// ═══════════════════════════════════════════════════════════════════════════
// PREDICTION RESULT
// ═══════════════════════════════════════════════════════════════════════════

// Prediction is the scored, explained result of a single risk evaluation.
// It is a pure computed value with no identity beyond the request that
// produced it.
type Prediction struct {
	// RiskScore is the additive risk estimate in [0,1], rounded to 4 decimals.
	RiskScore float64 `json:"risk_score"`

	// RiskLevel is the tier derived from RiskScore (>=0.5 high, >=0.3 medium).
	RiskLevel Level `json:"risk_level"`

	// Factors lists the contributing factor tags in evaluation order.
	Factors []Factor `json:"factors"`

	// Confidence is 1 - |0.5 - RiskScore|, rounded to 4 decimals. A
	// distance-from-ambiguity heuristic, not a statistical interval: scores
	// near the extremes are considered most certain.
	Confidence float64 `json:"confidence"`

	// RecommendedAction is the intervention text for the tier.
	RecommendedAction string `json:"recommended_actions"`

	// Echo of the (normalized) inputs the score was computed from.
	AttendancePercentage float64 `json:"attendance_percentage"`
	AverageScore         float64 `json:"average_score"`
	TotalSessions        int     `json:"total_sessions"`
}

// ═══════════════════════════════════════════════════════════════════════════
// SCORER
// ═══════════════════════════════════════════════════════════════════════════

// ReadinessProbe reports whether the engine's model artifact has been
// loaded or synthesized. The rule-based scoring path never consults the
// artifact; readiness is a liveness signal only.
type ReadinessProbe interface {
	Ready() bool
}

// Scorer is the dropout-risk engine. It is stateless per call: every Score
// invocation is a pure function of its snapshot.
type Scorer struct {
	artifact ReadinessProbe
}

// NewScorer creates a Scorer. The artifact probe may be nil, in which case
// the engine always reports ready.
func NewScorer(artifact ReadinessProbe) *Scorer {
	return &Scorer{artifact: artifact}
}

// Ready reports whether the model artifact backing the engine is available.
func (s *Scorer) Ready() bool {
	if s.artifact == nil {
		return true
	}
	return s.artifact.Ready()
}

// Score evaluates the three rule ladders over the snapshot and assembles the
// prediction. Identical snapshots always produce identical predictions.
func (s *Scorer) Score(snapshot Snapshot) Prediction {
	snap := snapshot.Normalized()

	riskScore := 0.0
	factors := make([]Factor, 0, 3)

	ladders := []struct {
		ladder []rung
		value  float64
	}{
		{attendanceLadder, snap.AttendancePercentage},
		{performanceLadder, snap.AverageScore},
		{engagementLadder, float64(snap.TotalSessions)},
	}

	for _, l := range ladders {
		weight, tag := evaluate(l.ladder, l.value)
		riskScore += weight
		factors = append(factors, tag)
	}

	level, action := tier(riskScore)

	return Prediction{
		RiskScore:            shared.Round4(riskScore),
		RiskLevel:            level,
		Factors:              factors,
		Confidence:           shared.Round4(1 - absFloat(0.5-riskScore)),
		RecommendedAction:    action,
		AttendancePercentage: snap.AttendancePercentage,
		AverageScore:         snap.AverageScore,
		TotalSessions:        snap.TotalSessions,
	}
}

// tier maps the additive score onto a risk level and its intervention text.
func tier(score float64) (Level, string) {
	switch {
	case score >= 0.5:
		return LevelHigh, actionHigh
	case score >= 0.3:
		return LevelMedium, actionMedium
	default:
		return LevelLow, actionLow
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
