package cluster

import "context"

// CohortSource loads the engagement summary of every student actively
// enrolled in an activity.
type CohortSource interface {
	ActivityCohort(ctx context.Context, activityID int64) ([]Member, error)
}
