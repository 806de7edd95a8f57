package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreClamped(t *testing.T) {
	assert.Equal(t, Score(0), Score(-12).Clamped())
	assert.Equal(t, Score(100), Score(250).Clamped())
	assert.Equal(t, Score(66.5), Score(66.5).Clamped())
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 0.9, Round4(0.4+0.4+0.1))
	assert.Equal(t, 0.6, Round4(1-0.4))
	assert.Equal(t, 83.33, Round2(83.3333333))
}

func TestNewActivityCategory(t *testing.T) {
	c, err := NewActivityCategory("  Sports ")
	assert.NoError(t, err)
	assert.Equal(t, CategorySports, c)

	_, err = NewActivityCategory("chess")
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.True(t, IsValidation(err))
}

func TestSkillLevelOrdinal(t *testing.T) {
	assert.Equal(t, 1.0, SkillBeginner.Ordinal())
	assert.Equal(t, 2.0, SkillIntermediate.Ordinal())
	assert.Equal(t, 3.0, SkillAdvanced.Ordinal())
	assert.Equal(t, 4.0, SkillExpert.Ordinal())

	// Unknown levels fall back to beginner's rank.
	assert.Equal(t, 1.0, SkillLevel("wizard").Ordinal())
	assert.Equal(t, 1.0, SkillLevel("").Ordinal())
}

func TestNewSkillLevel(t *testing.T) {
	l, err := NewSkillLevel("ADVANCED")
	assert.NoError(t, err)
	assert.Equal(t, SkillAdvanced, l)

	_, err = NewSkillLevel("wizard")
	assert.ErrorIs(t, err, ErrUnknownSkill)
}

func TestDomainErrorMatching(t *testing.T) {
	err := NewComputationError("forecast", "Forecast", assert.AnError)
	assert.True(t, IsComputation(err))
	assert.False(t, IsValidation(err))
	assert.ErrorIs(t, err, assert.AnError)

	verr := NewValidationError("recommend", "Recommend", "student_id")
	assert.True(t, IsValidation(verr))
	assert.Contains(t, verr.Error(), "student_id")
}
