package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"every five minutes", "*/5 * * * *", false},
		{"nightly at three", "0 3 * * *", false},
		{"sunday midnight", "0 0 * * 0", false},
		{"list of hours", "0 9,12,18 * * *", false},
		{"range of weekdays", "30 8 * * 1-5", false},
		{"too few fields", "* * * *", true},
		{"minute out of range", "60 * * * *", true},
		{"garbage field", "abc * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCronExpression(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCronExpressionNext(t *testing.T) {
	base := time.Date(2025, 3, 10, 14, 7, 30, 0, time.UTC) // Monday

	ce, err := ParseCronExpression("*/15 * * * *")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 14, 15, 0, 0, time.UTC), ce.Next(base))

	ce, err = ParseCronExpression("0 3 * * *")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 11, 3, 0, 0, 0, time.UTC), ce.Next(base))

	ce, err = ParseCronExpression("0 0 * * 0")
	require.NoError(t, err)
	next := ce.Next(base)
	assert.Equal(t, time.Sunday, next.Weekday())
	assert.Equal(t, time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC), next)
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(30 * time.Minute)

	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(30*time.Minute), s.Next(now))
	assert.Equal(t, "@every 30m0s", s.String())
}

func TestSchedulerRegisterAndInfo(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())

	job := &funcJob{name: "noop", desc: "does nothing"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	// Duplicate registration is rejected.
	err := s.Register(job, NewIntervalSchedule(time.Hour))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)

	info, err := s.GetJobInfo("noop")
	require.NoError(t, err)
	assert.True(t, info.Enabled)
	assert.False(t, info.NextRun.IsZero())

	require.NoError(t, s.DisableJob("noop"))
	info, err = s.GetJobInfo("noop")
	require.NoError(t, err)
	assert.False(t, info.Enabled)

	_, err = s.GetJobInfo("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

type funcJob struct {
	name string
	desc string
}

func (j *funcJob) Name() string                { return j.name }
func (j *funcJob) Description() string         { return j.desc }
func (j *funcJob) Run(_ context.Context) error { return nil }
