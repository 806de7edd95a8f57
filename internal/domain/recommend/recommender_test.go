package recommend

import (
	"testing"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommend_NewStudent(t *testing.T) {
	r := NewRecommender().Recommend(nil)

	assert.Equal(t, onboardingReasoning, r.Reasoning)
	require.NotEmpty(t, r.Suggestions)

	// A new student always gets exploratory suggestions, the improvement
	// nudge, and the social suggestion.
	var hasSocial bool
	for _, s := range r.Suggestions {
		if s.Type == SuggestWellRounded && s.Category == shared.CategorySocial {
			hasSocial = true
		}
	}
	assert.True(t, hasSocial)
	assert.Empty(t, r.Preferences.PreferredCategories)
	assert.Equal(t, 0.0, r.Preferences.DiversityScore)
}

func TestRecommend_TopCategoryFirst(t *testing.T) {
	history := []Enrollment{
		{Category: shared.CategorySports, AvgScore: 92},
		{Category: shared.CategoryClubs, AvgScore: 78},
	}

	r := NewRecommender().Recommend(history)

	require.NotEmpty(t, r.Suggestions)
	first := r.Suggestions[0]
	assert.Equal(t, SuggestSimilarSuccess, first.Type)
	assert.Equal(t, shared.CategorySports, first.Category)
	assert.Equal(t, 1, first.Priority)

	assert.Equal(t,
		[]shared.ActivityCategory{shared.CategorySports, shared.CategoryClubs},
		r.Preferences.PreferredCategories)
}

func TestRecommend_PrioritySortIsStable(t *testing.T) {
	history := []Enrollment{
		{Category: shared.CategorySports, AvgScore: 65},
	}

	r := NewRecommender().Recommend(history)

	// similar_success (p1) was generated before improvement (p1); the stable
	// sort must keep that order within the priority tie.
	require.GreaterOrEqual(t, len(r.Suggestions), 2)
	assert.Equal(t, SuggestSimilarSuccess, r.Suggestions[0].Type)
	assert.Equal(t, SuggestImprovement, r.Suggestions[1].Type)

	// Ascending priority overall.
	for i := 1; i < len(r.Suggestions); i++ {
		assert.GreaterOrEqual(t, r.Suggestions[i].Priority, r.Suggestions[i-1].Priority)
	}
}

func TestRecommend_ExploreNewCapsAtTwo(t *testing.T) {
	r := NewRecommender().Recommend([]Enrollment{
		{Category: shared.CategorySports, AvgScore: 90},
	})

	var exploreCount int
	for _, s := range r.Suggestions {
		if s.Type == SuggestExploreNew {
			exploreCount++
		}
	}
	assert.Equal(t, 2, exploreCount)
}

func TestRecommend_NoImprovementWhenPerformingWell(t *testing.T) {
	r := NewRecommender().Recommend([]Enrollment{
		{Category: shared.CategorySports, AvgScore: 85},
		{Category: shared.CategoryTechnical, AvgScore: 80},
	})

	for _, s := range r.Suggestions {
		assert.NotEqual(t, SuggestImprovement, s.Type)
	}
}

func TestRecommend_NoSocialSuggestionWhenTried(t *testing.T) {
	r := NewRecommender().Recommend([]Enrollment{
		{Category: shared.CategorySocial, AvgScore: 70},
	})

	for _, s := range r.Suggestions {
		assert.NotEqual(t, SuggestWellRounded, s.Type)
	}
}

func TestRecommend_DiversityScore(t *testing.T) {
	r := NewRecommender().Recommend([]Enrollment{
		{Category: shared.CategorySports, AvgScore: 70},
		{Category: shared.CategorySports, AvgScore: 80},
		{Category: shared.CategoryClubs, AvgScore: 60},
	})

	// 2 distinct categories out of the fixed universe of 5.
	assert.Equal(t, 0.4, r.Preferences.DiversityScore)
}

func TestRecommend_ReasoningBands(t *testing.T) {
	// Low diversity + strong performance.
	strong := NewRecommender().Recommend([]Enrollment{
		{Category: shared.CategoryTechnical, AvgScore: 95},
	})
	assert.Contains(t, strong.Reasoning, "You excel in technical activities.")
	assert.Contains(t, strong.Reasoning, "more diverse categories")
	assert.Contains(t, strong.Reasoning, "advanced challenges")

	// High diversity + weak performance.
	weak := NewRecommender().Recommend([]Enrollment{
		{Category: shared.CategorySports, AvgScore: 50},
		{Category: shared.CategoryClubs, AvgScore: 55},
		{Category: shared.CategoryTechnical, AvgScore: 45},
		{Category: shared.CategorySocial, AvgScore: 52},
	})
	assert.Contains(t, weak.Reasoning, "Great diversity")
	assert.Contains(t, weak.Reasoning, "Focus on skill development")
}

func TestRecommend_CategoryScoresAveragedPerCategory(t *testing.T) {
	r := NewRecommender().Recommend([]Enrollment{
		{Category: shared.CategorySports, AvgScore: 60},
		{Category: shared.CategorySports, AvgScore: 80},
	})

	assert.Equal(t, 70.0, r.Preferences.CategoryScores[shared.CategorySports])
	assert.Equal(t, 70.0, r.Preferences.AveragePerformance)
}

func TestRecommend_ZeroScoresCountCategoryButNotPreference(t *testing.T) {
	r := NewRecommender().Recommend([]Enrollment{
		{Category: shared.CategorySports, AvgScore: 0},
	})

	// The category counts toward diversity but produces no preference signal.
	assert.Equal(t, 0.2, r.Preferences.DiversityScore)
	assert.Empty(t, r.Preferences.PreferredCategories)
}

func TestRecommend_Idempotent(t *testing.T) {
	history := []Enrollment{
		{Category: shared.CategorySports, AvgScore: 73},
		{Category: shared.CategoryClubs, AvgScore: 73},
		{Category: shared.CategoryTechnical, AvgScore: 91},
	}

	rec := NewRecommender()
	first := rec.Recommend(history)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, rec.Recommend(history))
	}
}
