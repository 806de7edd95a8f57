// Package recommend implements the activity recommendation engine.
//
// Given a student's enrollment history, the engine derives category
// preferences and a diversity signal, generates prioritized candidate
// categories, and composes human-readable reasoning. Every call is a pure
// synchronous computation over its inputs.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"

	"gonum.org/v1/gonum/stat"
)

// ═══════════════════════════════════════════════════════════════════════════
// INPUT RECORDS
// ═══════════════════════════════════════════════════════════════════════════

// Enrollment is one historical enrollment of the student.
type Enrollment struct {
	// Category is the activity category. Records with an empty category are
	// skipped during preference analysis.
	Category shared.ActivityCategory `json:"category"`

	// AvgScore is the student's average score in the activity, 0-100. A zero
	// score contributes the category but no preference signal.
	AvgScore float64 `json:"avg_score"`

	// ActivityID optionally identifies the concrete activity.
	ActivityID int64 `json:"activity_id"`
}

// ═══════════════════════════════════════════════════════════════════════════
// RESULT RECORDS
// ═══════════════════════════════════════════════════════════════════════════

// SuggestionType classifies why a category was suggested.
type SuggestionType string

const (
	// SuggestSimilarSuccess recommends more of the category the student
	// performs best in.
	SuggestSimilarSuccess SuggestionType = "similar_success"

	// SuggestExploreNew recommends an untried category for diversity.
	SuggestExploreNew SuggestionType = "explore_new"

	// SuggestImprovement recommends skill development when overall
	// performance is below par.
	SuggestImprovement SuggestionType = "improvement"

	// SuggestWellRounded recommends social activities for balance.
	SuggestWellRounded SuggestionType = "well_rounded"
)

// Suggestion is a single ranked candidate category.
type Suggestion struct {
	// Type classifies the suggestion.
	Type SuggestionType `json:"type"`

	// Category is the suggested activity category.
	Category shared.ActivityCategory `json:"category"`

	// Reason is a one-sentence justification.
	Reason string `json:"reason"`

	// Priority ranks the suggestion; 1 is highest. Ties keep generation
	// order.
	Priority int `json:"priority"`
}

// Preferences summarizes the signals derived from the enrollment history.
type Preferences struct {
	// PreferredCategories ranks the categories the student has tried,
	// descending by mean score.
	PreferredCategories []shared.ActivityCategory `json:"preferred_categories"`

	// CategoryScores maps each tried category to its mean score.
	CategoryScores map[shared.ActivityCategory]float64 `json:"category_scores,omitempty"`

	// AveragePerformance is the mean of the per-category mean scores.
	AveragePerformance float64 `json:"average_performance"`

	// DiversityScore is the fraction of the fixed category universe the
	// student has sampled.
	DiversityScore float64 `json:"diversity_score"`
}

// Result is the full recommendation output for one student.
type Result struct {
	// Suggestions is the prioritized candidate list, ascending by priority.
	Suggestions []Suggestion `json:"recommendations"`

	// Reasoning is the composed human-readable explanation.
	Reasoning string `json:"reasoning"`

	// Preferences echoes the derived preference signals.
	Preferences Preferences `json:"student_preferences"`
}

// Fixed reasoning used when the student has no history yet.
const onboardingReasoning = "As a new student, we recommend starting with diverse activities to discover your interests."

// ═══════════════════════════════════════════════════════════════════════════
// RECOMMENDER
// ═══════════════════════════════════════════════════════════════════════════

// Recommender is the activity recommendation engine. Stateless; always ready.
type Recommender struct{}

// NewRecommender creates a Recommender.
func NewRecommender() *Recommender {
	return &Recommender{}
}

// Ready reports engine readiness. The recommender has no model artifact.
func (r *Recommender) Ready() bool { return true }

// Recommend derives preferences from the history and assembles the ranked
// suggestion list plus reasoning. An empty history is valid input: the
// student receives exploratory suggestions and the fixed onboarding message.
func (r *Recommender) Recommend(history []Enrollment) Result {
	prefs := analyzePreferences(history)
	suggestions := generateSuggestions(prefs, history)
	reasoning := composeReasoning(prefs, history)

	return Result{
		Suggestions: suggestions,
		Reasoning:   reasoning,
		Preferences: prefs,
	}
}

// analyzePreferences groups historical scores by category and derives the
// preference ranking and diversity signal.
func analyzePreferences(history []Enrollment) Preferences {
	if len(history) == 0 {
		return Preferences{PreferredCategories: []shared.ActivityCategory{}}
	}

	perCategory := make(map[shared.ActivityCategory][]float64)
	tried := make(map[shared.ActivityCategory]bool)
	for _, e := range history {
		if e.Category == "" {
			continue
		}
		tried[e.Category] = true
		if e.AvgScore == 0 {
			continue
		}
		perCategory[e.Category] = append(perCategory[e.Category], shared.Clamp(e.AvgScore, 0, 100))
	}

	scores := make(map[shared.ActivityCategory]float64, len(perCategory))
	means := make([]float64, 0, len(perCategory))
	ranked := make([]shared.ActivityCategory, 0, len(perCategory))
	for cat, vals := range perCategory {
		mean := stat.Mean(vals, nil)
		scores[cat] = mean
		means = append(means, mean)
		ranked = append(ranked, cat)
	}

	// Descending by mean score; name breaks ties so the ranking is stable
	// across calls regardless of map iteration order.
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i]], scores[ranked[j]]
		if si != sj {
			return si > sj
		}
		return ranked[i] < ranked[j]
	})

	avgPerformance := 0.0
	if len(means) > 0 {
		avgPerformance = stat.Mean(means, nil)
	}

	return Preferences{
		PreferredCategories: ranked,
		CategoryScores:      scores,
		AveragePerformance:  avgPerformance,
		DiversityScore:      float64(len(tried)) / float64(shared.CategoryCount),
	}
}

// generateSuggestions emits candidates in fixed order and then stable-sorts
// by priority, so ties keep generation order.
func generateSuggestions(prefs Preferences, history []Enrollment) []Suggestion {
	tried := make(map[shared.ActivityCategory]bool)
	for _, e := range history {
		if e.Category != "" {
			tried[e.Category] = true
		}
	}

	var untried []shared.ActivityCategory
	for _, cat := range shared.AllCategories() {
		if !tried[cat] {
			untried = append(untried, cat)
		}
	}

	suggestions := make([]Suggestion, 0, 4)

	if len(prefs.PreferredCategories) > 0 {
		top := prefs.PreferredCategories[0]
		suggestions = append(suggestions, Suggestion{
			Type:     SuggestSimilarSuccess,
			Category: top,
			Reason:   fmt.Sprintf("You performed well in %s activities", top),
			Priority: 1,
		})
	}

	for i, cat := range untried {
		if i >= 2 {
			break
		}
		suggestions = append(suggestions, Suggestion{
			Type:     SuggestExploreNew,
			Category: cat,
			Reason:   fmt.Sprintf("Explore %s to diversify your skills", cat),
			Priority: 2,
		})
	}

	if prefs.AveragePerformance < 75 && !tried[shared.CategorySkillDevelopment] {
		suggestions = append(suggestions, Suggestion{
			Type:     SuggestImprovement,
			Category: shared.CategorySkillDevelopment,
			Reason:   "Skill development activities can boost overall performance",
			Priority: 1,
		})
	}

	if !tried[shared.CategorySocial] {
		suggestions = append(suggestions, Suggestion{
			Type:     SuggestWellRounded,
			Category: shared.CategorySocial,
			Reason:   "Social activities promote teamwork and leadership",
			Priority: 3,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Priority < suggestions[j].Priority
	})

	return suggestions
}

// composeReasoning builds the explanation from the same signals that drove
// the suggestions. Fragments are omitted when their signal does not fire;
// with no signal at all a generic encouragement is returned.
func composeReasoning(prefs Preferences, history []Enrollment) string {
	if len(history) == 0 {
		return onboardingReasoning
	}

	var parts []string

	if len(prefs.PreferredCategories) > 0 {
		parts = append(parts, fmt.Sprintf("You excel in %s activities.", prefs.PreferredCategories[0]))
	}

	if prefs.DiversityScore < 0.4 {
		parts = append(parts, "Consider exploring more diverse categories.")
	} else if prefs.DiversityScore > 0.7 {
		parts = append(parts, "Great diversity in your activities!")
	}

	if prefs.AveragePerformance >= 80 {
		parts = append(parts, "Your strong performance suggests you're ready for advanced challenges.")
	} else if prefs.AveragePerformance < 60 {
		parts = append(parts, "Focus on skill development to improve overall performance.")
	}

	if len(parts) == 0 {
		return "Continue exploring activities that interest you."
	}
	return strings.Join(parts, " ")
}
