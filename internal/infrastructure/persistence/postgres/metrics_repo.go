// Package postgres implements the PostgreSQL persistence layer for the
// student analytics service.
package postgres

import (
	"context"
	"fmt"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/cluster"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/forecast"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/recommend"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/risk"
	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRICS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MetricsRepository assembles engine inputs from the raw engagement tables.
// Each method aggregates enrollments, attendance and performance rows into
// the value the corresponding engine consumes.
type MetricsRepository struct {
	conn *Connection
}

// NewMetricsRepository creates a new MetricsRepository.
func NewMetricsRepository(conn *Connection) *MetricsRepository {
	return &MetricsRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Dropout Risk Inputs
// ─────────────────────────────────────────────────────────────────────────────

// RiskSnapshot aggregates a student's engagement in one activity into the
// scorer's input. Returns shared.ErrEnrollmentNotFound when the student has
// no active enrollment in the activity.
func (r *MetricsRepository) RiskSnapshot(ctx context.Context, studentID, activityID int64) (risk.Snapshot, error) {
	query := `
		SELECT
			COALESCE(AVG(CASE WHEN a.status = 'present' THEN 1.0 ELSE 0.0 END) * 100, 0) AS attendance_percentage,
			COALESCE(AVG(p.score), 0) AS average_score,
			COUNT(DISTINCT a.attendance_id) AS total_sessions,
			GREATEST(CURRENT_DATE - e.enrolled_at::date, 0) AS days_enrolled
		FROM enrollments e
		LEFT JOIN attendance a ON e.enrollment_id = a.enrollment_id
		LEFT JOIN performance p ON e.enrollment_id = p.enrollment_id
		WHERE e.student_id = $1 AND e.activity_id = $2 AND e.status = 'active'
		GROUP BY e.enrollment_id
	`

	var snapshot risk.Snapshot
	row := r.conn.QueryRow(ctx, query, studentID, activityID)
	err := row.Scan(
		&snapshot.AttendancePercentage,
		&snapshot.AverageScore,
		&snapshot.TotalSessions,
		&snapshot.DaysEnrolled,
	)
	if err != nil {
		if IsNoRows(err) {
			return risk.Snapshot{}, shared.ErrEnrollmentNotFound
		}
		return risk.Snapshot{}, fmt.Errorf("failed to assemble risk snapshot: %w", err)
	}

	return snapshot, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Performance Forecast Inputs
// ─────────────────────────────────────────────────────────────────────────────

// PerformanceHistory returns a student's evaluation records in one activity,
// most recent first. An empty slice means the student has no evaluations yet;
// the forecaster degrades gracefully on that.
func (r *MetricsRepository) PerformanceHistory(ctx context.Context, studentID, activityID int64) ([]forecast.Record, error) {
	query := `
		SELECT
			p.score,
			p.evaluation_date::text,
			COALESCE((
				SELECT a.status FROM attendance a
				WHERE a.enrollment_id = e.enrollment_id AND a.date <= p.evaluation_date
				ORDER BY a.date DESC
				LIMIT 1
			), '') AS attendance_status
		FROM enrollments e
		JOIN performance p ON e.enrollment_id = p.enrollment_id
		WHERE e.student_id = $1 AND e.activity_id = $2
		ORDER BY p.evaluation_date DESC
	`

	rows, err := r.conn.Query(ctx, query, studentID, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance history: %w", err)
	}
	defer rows.Close()

	var records []forecast.Record
	for rows.Next() {
		var rec forecast.Record
		if err := rows.Scan(&rec.Score, &rec.EvaluationDate, &rec.AttendanceStatus); err != nil {
			return nil, fmt.Errorf("failed to scan performance record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Recommendation Inputs
// ─────────────────────────────────────────────────────────────────────────────

// EnrollmentHistory returns a student's per-activity engagement summary
// across all enrollments, past and present.
func (r *MetricsRepository) EnrollmentHistory(ctx context.Context, studentID int64) ([]recommend.Enrollment, error) {
	query := `
		SELECT
			act.category,
			act.activity_id,
			COALESCE(AVG(p.score), 0) AS avg_score
		FROM enrollments e
		JOIN activities act ON e.activity_id = act.activity_id
		LEFT JOIN performance p ON e.enrollment_id = p.enrollment_id
		WHERE e.student_id = $1
		GROUP BY act.category, act.activity_id
	`

	rows, err := r.conn.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollment history: %w", err)
	}
	defer rows.Close()

	var history []recommend.Enrollment
	for rows.Next() {
		var (
			category string
			entry    recommend.Enrollment
		)
		if err := rows.Scan(&category, &entry.ActivityID, &entry.AvgScore); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment record: %w", err)
		}
		entry.Category = shared.ActivityCategory(category)
		history = append(history, entry)
	}

	return history, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Clustering Inputs
// ─────────────────────────────────────────────────────────────────────────────

// ActivityCohort returns the per-student engagement summary of everyone
// actively enrolled in an activity. The skill level is the one from the
// student's most recent evaluation; students without evaluations rank as
// beginners.
func (r *MetricsRepository) ActivityCohort(ctx context.Context, activityID int64) ([]cluster.Member, error) {
	query := `
		SELECT
			e.student_id,
			s.name AS student_name,
			COALESCE(AVG(CASE WHEN a.status = 'present' THEN 1.0 ELSE 0.0 END) * 100, 0) AS attendance_percentage,
			COALESCE(AVG(p.score), 0) AS average_score,
			COALESCE((
				SELECT p2.skill_level FROM performance p2
				WHERE p2.enrollment_id = e.enrollment_id
				ORDER BY p2.evaluation_date DESC
				LIMIT 1
			), 'beginner') AS skill_level
		FROM enrollments e
		JOIN students s ON e.student_id = s.student_id
		LEFT JOIN attendance a ON e.enrollment_id = a.enrollment_id
		LEFT JOIN performance p ON e.enrollment_id = p.enrollment_id
		WHERE e.activity_id = $1 AND e.status = 'active'
		GROUP BY e.enrollment_id, e.student_id, s.name
		ORDER BY e.student_id
	`

	rows, err := r.conn.Query(ctx, query, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity cohort: %w", err)
	}
	defer rows.Close()

	var members []cluster.Member
	for rows.Next() {
		var (
			level  string
			member cluster.Member
		)
		err := rows.Scan(
			&member.StudentID,
			&member.StudentName,
			&member.AttendancePercentage,
			&member.AverageScore,
			&level,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cohort member: %w", err)
		}
		member.SkillLevel = shared.SkillLevel(level)
		members = append(members, member)
	}

	return members, rows.Err()
}

// ActiveActivityIDs returns the ids of approved activities that currently
// have active enrollments, ordered for stable iteration.
func (r *MetricsRepository) ActiveActivityIDs(ctx context.Context) ([]int64, error) {
	query := `
		SELECT DISTINCT act.activity_id
		FROM activities act
		JOIN enrollments e ON e.activity_id = act.activity_id
		WHERE act.status = 'approved'
		  AND e.status = 'active'
		ORDER BY act.activity_id
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active activities: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan activity id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Existence Checks
// ─────────────────────────────────────────────────────────────────────────────

// StudentExists reports whether the student is known to the platform.
func (r *MetricsRepository) StudentExists(ctx context.Context, studentID int64) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM students WHERE student_id = $1)`,
		studentID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check student existence: %w", err)
	}
	return exists, nil
}

// ActivityExists reports whether the activity is known to the platform.
func (r *MetricsRepository) ActivityExists(ctx context.Context, activityID int64) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM activities WHERE activity_id = $1)`,
		activityID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check activity existence: %w", err)
	}
	return exists, nil
}
