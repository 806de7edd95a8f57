package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_EndToEndExample(t *testing.T) {
	// attendance 55 (+0.4), score 40 (+0.4), sessions 2 (+0.1)
	s := NewScorer(nil)
	p := s.Score(Snapshot{
		AttendancePercentage: 55,
		AverageScore:         40,
		TotalSessions:        2,
		DaysEnrolled:         20,
	})

	assert.Equal(t, 0.9, p.RiskScore)
	assert.Equal(t, LevelHigh, p.RiskLevel)
	assert.Equal(t, 0.6, p.Confidence)
	assert.Equal(t, []Factor{FactorLowAttendance, FactorLowPerformance, FactorLowEngagement}, p.Factors)
	assert.Equal(t, actionHigh, p.RecommendedAction)
}

func TestScore_ZeroSnapshotIsHighRisk(t *testing.T) {
	// Missing fields default to zero, which is the fail-safe worst case.
	p := NewScorer(nil).Score(Snapshot{})

	assert.Equal(t, 0.9, p.RiskScore)
	assert.Equal(t, LevelHigh, p.RiskLevel)
}

func TestScore_LowRiskStudent(t *testing.T) {
	p := NewScorer(nil).Score(Snapshot{
		AttendancePercentage: 92,
		AverageScore:         88,
		TotalSessions:        12,
		DaysEnrolled:         120,
	})

	assert.Equal(t, 0.0, p.RiskScore)
	assert.Equal(t, LevelLow, p.RiskLevel)
	assert.Equal(t, 0.5, p.Confidence)
	assert.Equal(t, []Factor{FactorGoodAttendance, FactorGoodPerformance, FactorHighEngagement}, p.Factors)
}

func TestScore_LadderRungs(t *testing.T) {
	tests := []struct {
		name      string
		snapshot  Snapshot
		wantScore float64
		wantLevel Level
		wantTags  []Factor
	}{
		{
			name:      "moderate everything",
			snapshot:  Snapshot{AttendancePercentage: 70, AverageScore: 65, TotalSessions: 4},
			wantScore: 0.45,
			wantLevel: LevelMedium,
			wantTags:  []Factor{FactorModerateAttendance, FactorModeratePerformance, FactorModerateEngagement},
		},
		{
			name:      "attendance boundary 60 is moderate",
			snapshot:  Snapshot{AttendancePercentage: 60, AverageScore: 90, TotalSessions: 10},
			wantScore: 0.2,
			wantLevel: LevelLow,
			wantTags:  []Factor{FactorModerateAttendance, FactorGoodPerformance, FactorHighEngagement},
		},
		{
			name:      "attendance boundary 75 is good",
			snapshot:  Snapshot{AttendancePercentage: 75, AverageScore: 90, TotalSessions: 10},
			wantScore: 0,
			wantLevel: LevelLow,
			wantTags:  []Factor{FactorGoodAttendance, FactorGoodPerformance, FactorHighEngagement},
		},
		{
			name:      "score boundary 50 is moderate",
			snapshot:  Snapshot{AttendancePercentage: 90, AverageScore: 50, TotalSessions: 10},
			wantScore: 0.2,
			wantLevel: LevelLow,
			wantTags:  []Factor{FactorGoodAttendance, FactorModeratePerformance, FactorHighEngagement},
		},
		{
			name:      "sessions boundary 5 is high engagement",
			snapshot:  Snapshot{AttendancePercentage: 90, AverageScore: 90, TotalSessions: 5},
			wantScore: 0,
			wantLevel: LevelLow,
			wantTags:  []Factor{FactorGoodAttendance, FactorGoodPerformance, FactorHighEngagement},
		},
		{
			name:      "medium tier at exactly 0.3",
			snapshot:  Snapshot{AttendancePercentage: 70, AverageScore: 90, TotalSessions: 2},
			wantScore: 0.3,
			wantLevel: LevelMedium,
			wantTags:  []Factor{FactorModerateAttendance, FactorGoodPerformance, FactorLowEngagement},
		},
		{
			name:      "high tier at exactly 0.5",
			snapshot:  Snapshot{AttendancePercentage: 55, AverageScore: 90, TotalSessions: 2},
			wantScore: 0.5,
			wantLevel: LevelHigh,
			wantTags:  []Factor{FactorLowAttendance, FactorGoodPerformance, FactorLowEngagement},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewScorer(nil).Score(tt.snapshot)
			assert.Equal(t, tt.wantScore, p.RiskScore)
			assert.Equal(t, tt.wantLevel, p.RiskLevel)
			assert.Equal(t, tt.wantTags, p.Factors)
		})
	}
}

func TestScore_ConfidenceIdentity(t *testing.T) {
	// confidence == 1 - |0.5 - risk_score| for every computed score.
	snapshots := []Snapshot{
		{},
		{AttendancePercentage: 55, AverageScore: 40, TotalSessions: 2},
		{AttendancePercentage: 70, AverageScore: 65, TotalSessions: 4},
		{AttendancePercentage: 92, AverageScore: 88, TotalSessions: 12},
		{AttendancePercentage: 60, AverageScore: 75, TotalSessions: 1},
	}

	for _, snap := range snapshots {
		p := NewScorer(nil).Score(snap)
		want := 1 - absFloat(0.5-p.RiskScore)
		assert.InDelta(t, want, p.Confidence, 1e-9)
	}
}

func TestScore_RiskLevelMonotonic(t *testing.T) {
	order := map[Level]int{LevelLow: 0, LevelMedium: 1, LevelHigh: 2}

	// Sweep attendance down while holding the rest fixed: risk score rises,
	// and the level must never move down a tier.
	prevScore := -1.0
	prevRank := -1
	for _, attendance := range []float64{90, 74, 59} {
		p := NewScorer(nil).Score(Snapshot{
			AttendancePercentage: attendance,
			AverageScore:         65,
			TotalSessions:        4,
		})
		assert.GreaterOrEqual(t, p.RiskScore, prevScore)
		assert.GreaterOrEqual(t, order[p.RiskLevel], prevRank)
		prevScore = p.RiskScore
		prevRank = order[p.RiskLevel]
	}
}

func TestScore_ClampsOutOfRangeInput(t *testing.T) {
	p := NewScorer(nil).Score(Snapshot{
		AttendancePercentage: 140,
		AverageScore:         -30,
		TotalSessions:        -2,
	})

	assert.Equal(t, 100.0, p.AttendancePercentage)
	assert.Equal(t, 0.0, p.AverageScore)
	assert.Equal(t, 0, p.TotalSessions)
	assert.GreaterOrEqual(t, p.RiskScore, 0.0)
	assert.LessOrEqual(t, p.RiskScore, 1.0)
}

func TestScore_Idempotent(t *testing.T) {
	snap := Snapshot{AttendancePercentage: 63.7, AverageScore: 71.2, TotalSessions: 3, DaysEnrolled: 45}
	s := NewScorer(nil)
	first := s.Score(snap)
	second := s.Score(snap)
	assert.Equal(t, first, second)
}

type stubProbe struct{ ready bool }

func (p stubProbe) Ready() bool { return p.ready }

func TestScorer_Readiness(t *testing.T) {
	assert.True(t, NewScorer(nil).Ready())
	assert.True(t, NewScorer(stubProbe{ready: true}).Ready())
	assert.False(t, NewScorer(stubProbe{ready: false}).Ready())
}
