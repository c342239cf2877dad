package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and gradual rollouts. Generative
// features are the usual subjects: they cost money per call, so new
// prompts roll out to a percentage of users before going wide.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID string // account UUID
	Guest  bool   // guest session
}

// Predefined feature flag names.
const (
	// === Assistant Features ===
	FeatureAssistantBreakdown = "assistant.breakdown" // Prompt-to-task-plan
	FeatureAssistantQuiz      = "assistant.quiz"      // Quiz generation from notes
	FeatureAssistantGrammar   = "assistant.grammar"   // Grammar correction
	FeatureAssistantSummary   = "assistant.summary"   // Note summarization
	FeatureAssistantQuotes    = "assistant.quotes"    // Generated dashboard quotes

	// === Gamification Features ===
	FeatureGamificationXP     = "gamification.xp"     // XP for tasks and focus
	FeatureGamificationBadges = "gamification.badges" // Level-up badges

	// === Integration Features ===
	FeatureCalendarExport = "calendar.export" // Due dates to Google Calendar
	FeatureLiveStream     = "live.stream"     // Server-sent collection snapshots

	// === Notification Features ===
	FeatureNotifyDailyReminder = "notify.daily_reminder" // Morning due-task reminder
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Assistant features. Breakdown and grammar are proven; the newer
	// prompts roll out gradually.
	ff.features[FeatureAssistantBreakdown] = &Feature{
		Name:           FeatureAssistantBreakdown,
		Description:    "Turn a free-form prompt into a dated task plan",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureAssistantGrammar] = &Feature{
		Name:           FeatureAssistantGrammar,
		Description:    "Fix note grammar in place",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureAssistantSummary] = &Feature{
		Name:           FeatureAssistantSummary,
		Description:    "Append a generated summary to a note",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureAssistantQuiz] = &Feature{
		Name:           FeatureAssistantQuiz,
		Description:    "Generate a quiz from note content",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureAssistantQuotes] = &Feature{
		Name:           FeatureAssistantQuotes,
		Description:    "Generated motivational quote on the dashboard",
		Enabled:        true,
		RolloutPercent: 50, // Gradual rollout; fallback quotes otherwise
	}

	// Gamification
	ff.features[FeatureGamificationXP] = &Feature{
		Name:           FeatureGamificationXP,
		Description:    "Award XP for completed tasks and focus sessions",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationBadges] = &Feature{
		Name:           FeatureGamificationBadges,
		Description:    "Grant badges on level-up",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Integrations
	ff.features[FeatureCalendarExport] = &Feature{
		Name:           FeatureCalendarExport,
		Description:    "Export task due dates to Google Calendar",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLiveStream] = &Feature{
		Name:           FeatureLiveStream,
		Description:    "Push collection snapshots over server-sent events",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Notifications
	ff.features[FeatureNotifyDailyReminder] = &Feature{
		Name:           FeatureNotifyDailyReminder,
		Description:    "Morning reminder listing tasks due today",
		Enabled:        true,
		RolloutPercent: 100,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_ASSISTANT_QUIZ=true
// Example: FEATURE_ASSISTANT_QUOTES=50 (50% rollout)
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
// "assistant.quiz" -> "FEATURE_ASSISTANT_QUIZ"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

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

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return ff.isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func (ff *FeatureFlags) isInRollout(userID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
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
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// AssistantEnabled checks if any generative feature is enabled.
func (ff *FeatureFlags) AssistantEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureAssistantBreakdown, ctx) ||
		ff.IsEnabled(FeatureAssistantQuiz, ctx) ||
		ff.IsEnabled(FeatureAssistantGrammar, ctx) ||
		ff.IsEnabled(FeatureAssistantSummary, ctx)
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
