package recommend

import "context"

// EnrollmentSource loads a student's per-activity engagement summary across
// all enrollments. An empty slice means a new student.
type EnrollmentSource interface {
	EnrollmentHistory(ctx context.Context, studentID int64) ([]Enrollment, error)
}
