package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles for the analytics service.
// Supports gradual rollout, cohort targeting, and per-student overrides so
// new engine behavior can be trialed on a slice of the platform before a
// full release.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	studentOverrides map[int64]map[string]bool // studentID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Students are assigned based on hash of their ID
	RolloutPercent int

	// Grade-level targeting (e.g., "9", "10")
	// Empty means all grade levels
	TargetGrades []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	StudentID  int64
	GradeLevel string
	IsAdmin    bool
}

// Predefined feature flag names.
const (
	// === Engine Features ===
	FeatureEngineDropoutRisk    = "engine.dropout_risk"            // Dropout risk scoring
	FeatureEngineForecast       = "engine.performance_forecast"    // Score forecasting
	FeatureEngineRecommendation = "engine.activity_recommendation" // Activity suggestions
	FeatureEngineClustering     = "engine.student_clustering"      // Cohort clustering

	// === Caching Features ===
	FeatureCacheResults       = "cache.results"        // Cache identical requests
	FeatureCacheCohortWarming = "cache.cohort_warming" // Precompute cohort insights

	// === History Features ===
	FeatureHistoryPersistence = "history.persistence" // Persist every prediction
	FeatureHistoryPruning     = "history.pruning"     // Trim old prediction rows

	// === Experimental Features ===
	FeatureExperimentalTrainedArtifacts = "experimental.trained_artifacts" // Load trained model weights
	FeatureExperimentalBatchScoring     = "experimental.batch_scoring"     // Whole-cohort risk sweeps
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:         make(map[string]*Feature),
		studentOverrides: make(map[int64]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Engine features - the service's reason to exist, all on
	ff.features[FeatureEngineDropoutRisk] = &Feature{
		Name:           FeatureEngineDropoutRisk,
		Description:    "Dropout risk scoring endpoint",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureEngineForecast] = &Feature{
		Name:           FeatureEngineForecast,
		Description:    "Performance forecasting endpoint",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureEngineRecommendation] = &Feature{
		Name:           FeatureEngineRecommendation,
		Description:    "Activity recommendation endpoint",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureEngineClustering] = &Feature{
		Name:           FeatureEngineClustering,
		Description:    "Student clustering endpoint",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Caching features
	ff.features[FeatureCacheResults] = &Feature{
		Name:           FeatureCacheResults,
		Description:    "Serve repeated identical requests from cache",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureCacheCohortWarming] = &Feature{
		Name:           FeatureCacheCohortWarming,
		Description:    "Precompute cohort clustering off the request path",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// History features
	ff.features[FeatureHistoryPersistence] = &Feature{
		Name:           FeatureHistoryPersistence,
		Description:    "Record every prediction in history",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureHistoryPruning] = &Feature{
		Name:           FeatureHistoryPruning,
		Description:    "Trim prediction history past retention",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalTrainedArtifacts] = &Feature{
		Name:           FeatureExperimentalTrainedArtifacts,
		Description:    "Score with trained model weights instead of rules",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalBatchScoring] = &Feature{
		Name:           FeatureExperimentalBatchScoring,
		Description:    "Nightly risk sweep over whole cohorts",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_CACHE_RESULTS=false
// Example: FEATURE_EXPERIMENTAL_BATCH_SCORING=25 (25% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "cache.results" -> "FEATURE_CACHE_RESULTS"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check student overrides first
	if ctx != nil && ctx.StudentID != 0 {
		if overrides, ok := ff.studentOverrides[ctx.StudentID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check grade-level targeting
	if len(feature.TargetGrades) > 0 && ctx != nil && ctx.GradeLevel != "" {
		gradeMatch := false
		for _, g := range feature.TargetGrades {
			if g == ctx.GradeLevel {
				gradeMatch = true
				break
			}
		}
		if !gradeMatch {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.StudentID != 0 {
		return ff.isInRollout(ctx.StudentID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a student is in the rollout percentage.
// Uses consistent hashing so students stay in their bucket.
func (ff *FeatureFlags) isInRollout(studentID int64, featureName string, percent int) bool {
	// Create a consistent hash for this student+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(strconv.FormatInt(studentID, 10)))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// SetStudentOverride sets a feature override for a specific student.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetStudentOverride(studentID int64, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.studentOverrides[studentID]; !ok {
		ff.studentOverrides[studentID] = make(map[string]bool)
	}
	ff.studentOverrides[studentID][featureName] = enabled
}

// ClearStudentOverrides removes all overrides for a student.
func (ff *FeatureFlags) ClearStudentOverrides(studentID int64) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.studentOverrides, studentID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// EnginesEnabled checks if any analytics engine is enabled.
func (ff *FeatureFlags) EnginesEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureEngineDropoutRisk, ctx) ||
		ff.IsEnabled(FeatureEngineForecast, ctx) ||
		ff.IsEnabled(FeatureEngineRecommendation, ctx) ||
		ff.IsEnabled(FeatureEngineClustering, ctx)
}

// CachingEnabled checks if any caching layer is enabled.
func (ff *FeatureFlags) CachingEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureCacheResults, ctx) ||
		ff.IsEnabled(FeatureCacheCohortWarming, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
