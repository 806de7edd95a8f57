package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedForecaster() *Forecaster {
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	return NewForecasterAt(func() time.Time { return at })
}

func records(scores ...float64) []Record {
	out := make([]Record, len(scores))
	for i, s := range scores {
		out[i] = Record{Score: s, EvaluationDate: "2025-04-01"}
	}
	return out
}

func TestForecast_EmptySequence(t *testing.T) {
	r := fixedForecaster().Forecast(nil)

	assert.Equal(t, TrendInsufficientData, r.Trend)
	assert.Equal(t, 0.0, r.PredictedScore)
	assert.Equal(t, 0.0, r.Confidence)
	assert.Equal(t, 0.0, r.CurrentAverage)
	assert.Equal(t, 0.0, r.RecentAverage)
	assert.Empty(t, r.NextEvaluationDate)
}

func TestForecast_AllZeroScoresAreNoData(t *testing.T) {
	// A zero score is treated as an absent evaluation, not a legitimate zero.
	// Deliberately preserved behavior; this test pins it.
	r := fixedForecaster().Forecast(records(0, 0, 0))

	assert.Equal(t, TrendNoData, r.Trend)
	assert.Equal(t, 0.0, r.PredictedScore)
	assert.Equal(t, 0.0, r.Confidence)
}

func TestForecast_ZeroScoresAreFilteredFromStatistics(t *testing.T) {
	// [80, 0, 90] behaves exactly like [80, 90].
	withZero := fixedForecaster().Forecast(records(80, 0, 90))
	without := fixedForecaster().Forecast(records(80, 90))
	assert.Equal(t, without, withZero)
}

func TestForecast_TrendDirectionIsFirstVersusLast(t *testing.T) {
	// Most-recent-first ordering: [90,80,70] means the newest score is 90 and
	// the oldest is 70, so the student is improving. The inverse declines.
	up := fixedForecaster().Forecast(records(90, 80, 70))
	assert.Equal(t, TrendImproving, up.Trend)

	down := fixedForecaster().Forecast(records(70, 80, 90))
	assert.Equal(t, TrendDeclining, down.Trend)
}

func TestForecast_StableWithinFivePoints(t *testing.T) {
	r := fixedForecaster().Forecast(records(75, 72, 71))
	assert.Equal(t, TrendStable, r.Trend)

	// Exactly +5 is still stable; the rule is strict inequality.
	r = fixedForecaster().Forecast(records(75, 72, 70))
	assert.Equal(t, TrendStable, r.Trend)
}

func TestForecast_SingleScore(t *testing.T) {
	r := fixedForecaster().Forecast(records(88))

	assert.Equal(t, TrendInsufficientData, r.Trend)
	assert.Equal(t, 0.6, r.Confidence)
	assert.Equal(t, 88.0, r.PredictedScore)
	assert.Equal(t, 88.0, r.CurrentAverage)
	assert.Equal(t, 88.0, r.RecentAverage)
}

func TestForecast_BlendedPrediction(t *testing.T) {
	// scores [90,80,70,60]: recent avg = 80, overall avg = 75, improving.
	// predicted = (80*0.6 + 75*0.4) * 1.05 = 78 * 1.05 = 81.9
	r := fixedForecaster().Forecast(records(90, 80, 70, 60))

	assert.Equal(t, TrendImproving, r.Trend)
	assert.Equal(t, 81.9, r.PredictedScore)
	assert.Equal(t, 80.0, r.RecentAverage)
	assert.Equal(t, 75.0, r.CurrentAverage)
	assert.Equal(t, "2025-05-31", r.NextEvaluationDate)
}

func TestForecast_PredictedScoreAlwaysClamped(t *testing.T) {
	high := fixedForecaster().Forecast(records(100, 100, 90))
	assert.LessOrEqual(t, high.PredictedScore, 100.0)

	low := fixedForecaster().Forecast(records(1, 2, 12))
	assert.GreaterOrEqual(t, low.PredictedScore, 0.0)
}

func TestForecast_ConfidenceFromDispersion(t *testing.T) {
	// Identical scores: variance 0, confidence capped at 0.95.
	tight := fixedForecaster().Forecast(records(80, 80, 80))
	assert.Equal(t, 0.95, tight.Confidence)

	// Wildly dispersed scores floor the confidence at 0.5.
	wild := fixedForecaster().Forecast(records(100, 5, 95, 10))
	assert.Equal(t, 0.5, wild.Confidence)

	// Moderate dispersion lands strictly between the bounds.
	mid := fixedForecaster().Forecast(records(90, 70, 60))
	assert.Greater(t, mid.Confidence, 0.5)
	assert.Less(t, mid.Confidence, 0.95)
}

func TestForecast_RecommendationBands(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   string
	}{
		{"advanced challenges", []float64{95, 92, 90}, "advanced challenges"},
		{"maintain routine", []float64{75, 74, 73}, "current practice routine"},
		{"additional support", []float64{55, 54, 53}, "additional support"},
		{"immediate intervention", []float64{30, 31, 32}, "Immediate intervention"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := fixedForecaster().Forecast(records(tt.scores...))
			assert.Contains(t, r.Recommendations, tt.want)
		})
	}
}

func TestForecast_TrendNotesAppended(t *testing.T) {
	down := fixedForecaster().Forecast(records(60, 70, 80))
	assert.Contains(t, down.Recommendations, "Declining trend detected")

	up := fixedForecaster().Forecast(records(90, 80, 70))
	assert.Contains(t, up.Recommendations, "Maintain momentum")

	flat := fixedForecaster().Forecast(records(80, 80, 80))
	assert.NotContains(t, flat.Recommendations, "trend")
}

func TestForecast_Idempotent(t *testing.T) {
	in := records(82, 76, 91, 64)
	f := fixedForecaster()
	assert.Equal(t, f.Forecast(in), f.Forecast(in))
}
