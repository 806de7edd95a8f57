package forecast

import "context"

// HistorySource loads a student's evaluation records for one activity,
// most recent first. An empty slice is a valid degraded input.
type HistorySource interface {
	PerformanceHistory(ctx context.Context, studentID, activityID int64) ([]Record, error)
}
