// Package postgres implements the PostgreSQL persistence layer for the
// student analytics service.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/insight"
)

// ══════════════════════════════════════════════════════════════════════════════
// INSIGHT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// InsightRepository implements insight.Repository against the ai_predictions
// table.
type InsightRepository struct {
	conn *Connection
}

// NewInsightRepository creates a new InsightRepository.
func NewInsightRepository(conn *Connection) *InsightRepository {
	return &InsightRepository{conn: conn}
}

// Save persists an insight. A zero ID or CreatedAt is filled in.
func (r *InsightRepository) Save(ctx context.Context, ins *insight.Insight) error {
	if ins.ID == uuid.Nil {
		ins.ID = uuid.New()
	}
	if ins.CreatedAt.IsZero() {
		ins.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO ai_predictions (
			id, student_id, activity_id, model_type, prediction_result,
			confidence_score, risk_level, recommended_actions, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		ins.ID,
		ins.StudentID,
		ins.ActivityID,
		ins.ModelType,
		ins.Result,
		ins.Confidence,
		nullableString(ins.RiskLevel),
		nullableString(ins.RecommendedActions),
		ins.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save insight: %w", err)
	}

	return nil
}

// Default and maximum page sizes for History.
const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// History returns persisted insights matching the filter, newest first.
func (r *InsightRepository) History(ctx context.Context, filter insight.HistoryFilter) ([]insight.Insight, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	query := `
		SELECT id, student_id, activity_id, model_type, prediction_result,
			   confidence_score, risk_level, recommended_actions, created_at
		FROM ai_predictions
		WHERE ($1 = 0 OR student_id = $1)
		  AND ($2 = 0 OR activity_id = $2)
		  AND ($3 = '' OR model_type = $3)
		ORDER BY created_at DESC
		LIMIT $4
	`

	rows, err := r.conn.Query(ctx, query, filter.StudentID, filter.ActivityID, filter.ModelType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query insight history: %w", err)
	}
	defer rows.Close()

	var insights []insight.Insight
	for rows.Next() {
		var (
			ins       insight.Insight
			riskLevel *string
			actions   *string
		)
		err := rows.Scan(
			&ins.ID,
			&ins.StudentID,
			&ins.ActivityID,
			&ins.ModelType,
			&ins.Result,
			&ins.Confidence,
			&riskLevel,
			&actions,
			&ins.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insight row: %w", err)
		}
		if riskLevel != nil {
			ins.RiskLevel = *riskLevel
		}
		if actions != nil {
			ins.RecommendedActions = *actions
		}
		insights = append(insights, ins)
	}

	return insights, rows.Err()
}

// PruneBefore deletes insights created before the cutoff and returns the
// number of rows removed.
func (r *InsightRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM ai_predictions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune insights: %w", err)
	}
	return tag.RowsAffected(), nil
}

// nullableString maps the empty string to SQL NULL.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
