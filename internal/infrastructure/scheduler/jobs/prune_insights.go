package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRUNE INSIGHTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// InsightPruner deletes persisted insights older than the cutoff.
type InsightPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneInsightsJob removes prediction history older than the retention
// window. Every analytics request appends a row, so the table grows without
// bound unless trimmed.
type PruneInsightsJob struct {
	pruner InsightPruner
	logger *slog.Logger
	config PruneInsightsConfig
}

// PruneInsightsConfig contains configuration for the prune job.
type PruneInsightsConfig struct {
	// RetentionDays is how long prediction history is kept.
	RetentionDays int

	// Timeout is the maximum duration for the prune operation.
	Timeout time.Duration
}

// DefaultPruneInsightsConfig returns sensible defaults.
func DefaultPruneInsightsConfig() PruneInsightsConfig {
	return PruneInsightsConfig{
		RetentionDays: 90,
		Timeout:       time.Minute,
	}
}

// NewPruneInsightsJob creates a new prune insights job.
func NewPruneInsightsJob(pruner InsightPruner, logger *slog.Logger, config PruneInsightsConfig) *PruneInsightsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = DefaultPruneInsightsConfig().RetentionDays
	}

	return &PruneInsightsJob{
		pruner: pruner,
		logger: logger,
		config: config,
	}
}

// Name returns the job name.
func (j *PruneInsightsJob) Name() string {
	return "prune_insights"
}

// Description returns a human-readable description.
func (j *PruneInsightsJob) Description() string {
	return "Deletes prediction history older than the retention window"
}

// Run executes the prune job.
func (j *PruneInsightsJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -j.config.RetentionDays)

	removed, err := j.pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune insights: %w", err)
	}

	j.logger.Info("prune_insights job completed",
		"cutoff", cutoff.Format(time.RFC3339),
		"removed", removed,
	)

	return nil
}
