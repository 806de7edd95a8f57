// Package insight defines the persisted analytics-result record and the
// storage contracts around it. Every computed engine result is recorded as an
// Insight for audit and history; recent results are additionally cached by
// request digest so repeated identical requests skip recomputation.
package insight

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Model types recorded with each persisted insight.
const (
	ModelTypeDropoutRisk            = "dropout_risk"
	ModelTypePerformanceForecast    = "performance_forecast"
	ModelTypeActivityRecommendation = "activity_recommendation"
	ModelTypeStudentClustering      = "student_clustering"
)

// Insight is one computed analytics result. StudentID and ActivityID are nil
// when the insight is not scoped to one (cohort clustering has no student,
// recommendations no activity).
type Insight struct {
	ID                 uuid.UUID       `json:"id"`
	StudentID          *int64          `json:"student_id,omitempty"`
	ActivityID         *int64          `json:"activity_id,omitempty"`
	ModelType          string          `json:"model_type"`
	Result             json.RawMessage `json:"prediction_result"`
	Confidence         *float64        `json:"confidence_score,omitempty"`
	RiskLevel          string          `json:"risk_level,omitempty"`
	RecommendedActions string          `json:"recommended_actions,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// HistoryFilter narrows a history query. Zero values mean "any".
type HistoryFilter struct {
	StudentID  int64
	ActivityID int64
	ModelType  string
	Limit      int
}

// StudentRef and ActivityRef build the optional scope pointers.
func StudentRef(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func ActivityRef(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

// ConfidenceRef wraps a confidence value for storage.
func ConfidenceRef(v float64) *float64 {
	return &v
}
