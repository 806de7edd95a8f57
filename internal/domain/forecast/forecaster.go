// Package forecast implements the performance-trend forecasting engine.
//
// Given a time-ordered sequence of evaluation scores (index 0 = most recent),
// the engine estimates the next-period score, classifies the trend, derives a
// confidence from score dispersion, and generates textual recommendations.
// Every call is a pure synchronous computation over its inputs.
package forecast

import (
	"strings"
	"time"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"
	"github.com/dharanesh-gopal/extra-curricular-module/pkg/timeutil"

	"gonum.org/v1/gonum/stat"
)

// ═══════════════════════════════════════════════════════════════════════════
// INPUT RECORDS
// ═══════════════════════════════════════════════════════════════════════════

// Record is a single historical evaluation. The sequence is caller-ordered;
// the forecaster treats index 0 as the most recent evaluation.
type Record struct {
	// Score is the evaluation score, 0-100.
	Score float64 `json:"score"`

	// EvaluationDate is a chronological marker. Informational only: trend
	// detection uses sequence position, not the date.
	EvaluationDate string `json:"evaluation_date"`

	// AttendanceStatus is an optional categorical marker ("present" etc.).
	AttendanceStatus string `json:"attendance_status"`
}

// ═══════════════════════════════════════════════════════════════════════════
// TREND CLASSIFICATION
// ═══════════════════════════════════════════════════════════════════════════

// Trend is the detected direction of the score series.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
	// TrendInsufficientData marks an empty sequence, or one with fewer than
	// two usable scores.
	TrendInsufficientData Trend = "insufficient_data"
	// TrendNoData marks a non-empty sequence whose records all carry a zero
	// score and were therefore filtered out.
	TrendNoData Trend = "no_data"
)

// Trend factors applied multiplicatively to the blended average.
const (
	factorImproving = 1.05
	factorDeclining = 0.95
	factorNeutral   = 1.0
)

// ═══════════════════════════════════════════════════════════════════════════
// FORECAST RESULT
// ═══════════════════════════════════════════════════════════════════════════

// Result is the computed forecast. A pure value: no lifecycle beyond the call.
type Result struct {
	// PredictedScore is the clamped next-period estimate, rounded to 2
	// decimals.
	PredictedScore float64 `json:"predicted_score"`

	// Trend is the detected series direction.
	Trend Trend `json:"trend"`

	// Confidence is in [0,1]: with >=3 scores it is clamp(0.5, 0.95,
	// 1 - variance/1000); with fewer it is a fixed 0.6. Zero for the degraded
	// insufficient_data/no_data results.
	Confidence float64 `json:"confidence"`

	// NextEvaluationDate is advisory scheduling: 30 days from the call time,
	// not derived from the data.
	NextEvaluationDate string `json:"next_evaluation_date,omitempty"`

	// Recommendations is banded guidance text joined with " | ".
	Recommendations string `json:"recommendations"`

	// CurrentAverage is the mean of all usable scores, rounded to 2 decimals.
	CurrentAverage float64 `json:"current_average"`

	// RecentAverage is the mean of up to the 3 most recent usable scores,
	// rounded to 2 decimals.
	RecentAverage float64 `json:"recent_average"`
}

// ═══════════════════════════════════════════════════════════════════════════
// FORECASTER
// ═══════════════════════════════════════════════════════════════════════════

// Forecaster is the performance-trend engine. Stateless; always ready.
type Forecaster struct {
	// now is injectable for deterministic next_evaluation_date in tests.
	now func() time.Time
}

// NewForecaster creates a Forecaster using the wall clock.
func NewForecaster() *Forecaster {
	return &Forecaster{now: time.Now}
}

// NewForecasterAt creates a Forecaster with a fixed clock. Test hook.
func NewForecasterAt(now func() time.Time) *Forecaster {
	return &Forecaster{now: now}
}

// Ready reports engine readiness. The forecaster has no model artifact.
func (f *Forecaster) Ready() bool { return true }

// Forecast computes the next-period estimate from the record sequence.
//
// Records with a zero score are treated as absent data and filtered out
// before any statistics. This conflates "no evaluation" with "scored zero";
// the behavior is preserved deliberately and pinned by tests.
func (f *Forecaster) Forecast(records []Record) Result {
	if len(records) == 0 {
		return Result{
			Trend:           TrendInsufficientData,
			Recommendations: "Need more evaluation data for accurate prediction",
		}
	}

	scores := usableScores(records)
	if len(scores) == 0 {
		return Result{
			Trend:           TrendNoData,
			Recommendations: "No performance scores available",
		}
	}

	overallAvg := stat.Mean(scores, nil)

	recent := scores
	if len(scores) >= 3 {
		recent = scores[:3]
	}
	recentAvg := stat.Mean(recent, nil)

	trend, trendFactor := classifyTrend(scores)

	predicted := (recentAvg*0.6 + overallAvg*0.4) * trendFactor
	predicted = shared.Clamp(predicted, 0, 100)

	confidence := 0.6
	if len(scores) >= 3 {
		variance := populationVariance(scores)
		confidence = shared.Clamp(1-variance/1000, 0.5, 0.95)
	}

	return Result{
		PredictedScore:     shared.Round2(predicted),
		Trend:              trend,
		Confidence:         shared.Round4(confidence),
		NextEvaluationDate: timeutil.NextEvaluationDate(f.now()),
		Recommendations:    buildRecommendations(predicted, trend),
		CurrentAverage:     shared.Round2(overallAvg),
		RecentAverage:      shared.Round2(recentAvg),
	}
}

// usableScores extracts non-zero scores in sequence order, clamped to [0,100].
func usableScores(records []Record) []float64 {
	scores := make([]float64, 0, len(records))
	for _, r := range records {
		if r.Score == 0 {
			continue
		}
		scores = append(scores, shared.Clamp(r.Score, 0, 100))
	}
	return scores
}

// classifyTrend compares the most recent score against the oldest one.
// A difference above 5 points marks improvement, below -5 decline. Fewer
// than two scores cannot support a direction.
func classifyTrend(scores []float64) (Trend, float64) {
	if len(scores) < 2 {
		return TrendInsufficientData, factorNeutral
	}
	first, last := scores[0], scores[len(scores)-1]
	switch {
	case first > last+5:
		return TrendImproving, factorImproving
	case first < last-5:
		return TrendDeclining, factorDeclining
	default:
		return TrendStable, factorNeutral
	}
}

// populationVariance matches the biased (population) variance the confidence
// band was tuned against. stat.Variance is the sample variance, so the sum of
// squared deviations is rescaled by n instead of n-1.
func populationVariance(scores []float64) float64 {
	n := float64(len(scores))
	return stat.Variance(scores, nil) * (n - 1) / n
}

// buildRecommendations concatenates the score-band guidance with the
// trend-specific notes.
func buildRecommendations(predicted float64, trend Trend) string {
	var parts []string

	switch {
	case predicted >= 85:
		parts = append(parts,
			"Excellent performance! Consider advanced challenges.",
			"Encourage participation in competitions or leadership roles.")
	case predicted >= 70:
		parts = append(parts,
			"Good performance. Continue current practice routine.",
			"Focus on consistency and gradual improvement.")
	case predicted >= 50:
		parts = append(parts,
			"Moderate performance. Provide additional support and resources.",
			"Consider one-on-one coaching sessions.")
	default:
		parts = append(parts,
			"Needs significant improvement. Immediate intervention required.",
			"Develop personalized improvement plan with clear milestones.")
	}

	switch trend {
	case TrendDeclining:
		parts = append(parts,
			"Declining trend detected. Investigate potential issues.",
			"Schedule meeting to discuss challenges and concerns.")
	case TrendImproving:
		parts = append(parts, "Positive improvement trend. Maintain momentum!")
	}

	return strings.Join(parts, " | ")
}
