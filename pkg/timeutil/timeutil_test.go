package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextEvaluationDate(t *testing.T) {
	from := time.Date(2025, 1, 15, 13, 45, 0, 0, time.UTC)
	assert.Equal(t, "2025-02-14", NextEvaluationDate(from))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	b := time.Date(2025, 3, 11, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 10, DaysBetween(a, b))
	assert.Equal(t, -10, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
}

func TestParseDateRoundTrip(t *testing.T) {
	parsed, err := ParseDate("2025-06-30")
	assert.NoError(t, err)
	assert.Equal(t, "2025-06-30", FormatDate(parsed))

	_, err = ParseDate("30/06/2025")
	assert.Error(t, err)
}
