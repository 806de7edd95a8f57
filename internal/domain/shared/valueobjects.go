package shared

import (
	"math"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// Score / Percentage Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Score represents an evaluation score on the 0-100 scale.
type Score float64

const (
	// MinScore is the lowest possible evaluation score.
	MinScore Score = 0
	// MaxScore is the highest possible evaluation score.
	MaxScore Score = 100
)

// IsValid checks if the score is within the valid range.
func (s Score) IsValid() bool {
	return s >= MinScore && s <= MaxScore
}

// Clamped returns the score forced into [0, 100]. Every score entering an
// engine computation passes through this first.
func (s Score) Clamped() Score {
	return Score(Clamp(float64(s), float64(MinScore), float64(MaxScore)))
}

// Float64 returns the underlying float64 value.
func (s Score) Float64() float64 {
	return float64(s)
}

// Percentage represents an attendance percentage on the 0-100 scale.
type Percentage float64

// IsValid checks if the percentage is within the valid range.
func (p Percentage) IsValid() bool {
	return p >= 0 && p <= 100
}

// Clamped returns the percentage forced into [0, 100].
func (p Percentage) Clamped() Percentage {
	return Percentage(Clamp(float64(p), 0, 100))
}

// Float64 returns the underlying float64 value.
func (p Percentage) Float64() float64 {
	return float64(p)
}

// ═══════════════════════════════════════════════════════════════════════════
// Numeric Helpers
// ═══════════════════════════════════════════════════════════════════════════

// Clamp forces v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds to 2 decimal places. Used for averages and predicted scores
// in all output records.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round4 rounds to 4 decimal places. Used for risk scores and confidence
// values in all output records.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// ═══════════════════════════════════════════════════════════════════════════
// Activity Category (closed enumeration)
// ═══════════════════════════════════════════════════════════════════════════

// ActivityCategory is one of the fixed set of activity categories a student
// can enroll in. The universe is closed: unknown values fail validation
// explicitly instead of silently defaulting.
type ActivityCategory string

const (
	CategorySports           ActivityCategory = "sports"
	CategoryClubs            ActivityCategory = "clubs"
	CategoryTechnical        ActivityCategory = "technical"
	CategorySocial           ActivityCategory = "social"
	CategorySkillDevelopment ActivityCategory = "skill_development"
)

// AllCategories returns the fixed category universe in canonical order.
func AllCategories() []ActivityCategory {
	return []ActivityCategory{
		CategorySports,
		CategoryClubs,
		CategoryTechnical,
		CategorySocial,
		CategorySkillDevelopment,
	}
}

// CategoryCount is the size of the fixed category universe. The diversity
// score is the fraction of this universe a student has sampled.
const CategoryCount = 5

// IsValid checks membership in the closed category universe.
func (c ActivityCategory) IsValid() bool {
	switch c {
	case CategorySports, CategoryClubs, CategoryTechnical, CategorySocial, CategorySkillDevelopment:
		return true
	}
	return false
}

// String returns the string representation.
func (c ActivityCategory) String() string {
	return string(c)
}

// NewActivityCategory parses a category string with validation.
func NewActivityCategory(s string) (ActivityCategory, error) {
	c := ActivityCategory(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", NewDomainError("shared", "NewActivityCategory", ErrUnknownCategory, "unknown category: "+s)
	}
	return c, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Skill Level (ordinal enumeration)
// ═══════════════════════════════════════════════════════════════════════════

// SkillLevel is the student's self-reported proficiency tier. Levels are
// ordered: beginner < intermediate < advanced < expert.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillExpert       SkillLevel = "expert"
)

// IsValid checks membership in the skill-level universe.
func (l SkillLevel) IsValid() bool {
	switch l {
	case SkillBeginner, SkillIntermediate, SkillAdvanced, SkillExpert:
		return true
	}
	return false
}

// Ordinal maps the level to its numeric rank used as a clustering feature:
// beginner=1, intermediate=2, advanced=3, expert=4. Unrecognized or missing
// levels map to beginner.
func (l SkillLevel) Ordinal() float64 {
	switch l {
	case SkillIntermediate:
		return 2
	case SkillAdvanced:
		return 3
	case SkillExpert:
		return 4
	default:
		return 1
	}
}

// String returns the string representation.
func (l SkillLevel) String() string {
	return string(l)
}

// NewSkillLevel parses a skill level string with validation.
func NewSkillLevel(s string) (SkillLevel, error) {
	l := SkillLevel(strings.ToLower(strings.TrimSpace(s)))
	if !l.IsValid() {
		return "", NewDomainError("shared", "NewSkillLevel", ErrUnknownSkill, "unknown skill level: "+s)
	}
	return l, nil
}
