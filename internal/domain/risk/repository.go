package risk

import "context"

// SnapshotSource assembles a student's engagement snapshot for one activity
// from stored platform data. Implementations return
// shared.ErrEnrollmentNotFound when the student has no active enrollment.
type SnapshotSource interface {
	RiskSnapshot(ctx context.Context, studentID, activityID int64) (Snapshot, error)
}
