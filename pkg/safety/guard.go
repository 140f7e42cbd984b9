package safety

import (
	"errors"
	"sort"

	"github.com/rs/zerolog"
)

// Risk levels attached to security events.
const (
	RiskNone   = "none"
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

const logSampleRunes = 200

// ErrContentRejected is the sentinel wrapped by every ContentError.
var ErrContentRejected = errors.New("content rejected")

// ContentError reports why a submission failed the content gate.
type ContentError struct {
	Reason string
}

func (e *ContentError) Error() string {
	return "content rejected: " + e.Reason
}

func (e *ContentError) Unwrap() error {
	return ErrContentRejected
}

// Limits groups the length ceilings and content gate used by a Guard.
type Limits struct {
	MaxEssayLength  int
	MaxPromptLength int
	Content         ContentLimits
}

// DefaultLimits returns the essay/prompt ceilings and essay content limits.
func DefaultLimits() Limits {
	return Limits{
		MaxEssayLength:  MaxEssayLength,
		MaxPromptLength: MaxPromptLength,
		Content:         DefaultContentLimits(),
	}
}

// PreparedText is a submission that passed the content gate and was sanitized.
type PreparedText struct {
	Text            string
	WasModified     bool
	PIIWarning      string
	PIICategories   []string
	RemovedPatterns []string
	WordCount       int
}

// Guard composes the content gate, PII scan, sanitizer and security logging
// that run before user text reaches an evaluation prompt.
type Guard struct {
	sanitizer *Sanitizer
	limits    Limits
	logger    zerolog.Logger
}

// NewGuard builds a Guard. A nil sanitizer uses the built-in catalog.
func NewGuard(sanitizer *Sanitizer, limits Limits, logger zerolog.Logger) *Guard {
	if sanitizer == nil {
		sanitizer = defaultSanitizer
	}
	if limits.MaxEssayLength <= 0 {
		limits.MaxEssayLength = MaxEssayLength
	}
	if limits.MaxPromptLength <= 0 {
		limits.MaxPromptLength = MaxPromptLength
	}
	if limits.Content == (ContentLimits{}) {
		limits.Content = DefaultContentLimits()
	}
	return &Guard{
		sanitizer: sanitizer,
		limits:    limits,
		logger:    logger.With().Str("component", "safety_guard").Logger(),
	}
}

// Limits returns the configured limits.
func (g *Guard) Limits() Limits {
	return g.limits
}

// PrepareForEvaluation runs the essay content gate, then scans and sanitizes.
func (g *Guard) PrepareForEvaluation(text string) (PreparedText, error) {
	return g.Prepare(text, g.limits.Content)
}

// Prepare is PrepareForEvaluation with explicit content limits, used for
// speaking transcripts.
func (g *Guard) Prepare(text string, limits ContentLimits) (PreparedText, error) {
	check := ValidateContentWithLimits(text, limits)
	if !check.Valid {
		contentRejections.WithLabelValues(check.Reason).Inc()
		return PreparedText{}, &ContentError{Reason: check.Reason}
	}

	pii := ScanPII(text)
	result, matches := g.sanitizer.sanitize(text, g.limits.MaxEssayLength)

	for _, category := range pii.Categories {
		piiDetections.WithLabelValues(category).Inc()
	}
	g.record("submission", text, matches, pii)

	return PreparedText{
		Text:            result.Sanitized,
		WasModified:     result.WasModified,
		PIIWarning:      pii.Warning(),
		PIICategories:   pii.Categories,
		RemovedPatterns: result.RemovedPatterns,
		WordCount:       WordCount(text),
	}, nil
}

// SanitizePrompt cleans question text with the prompt ceiling.
func (g *Guard) SanitizePrompt(text string) SanitizationResult {
	result, matches := g.sanitizer.sanitize(text, g.limits.MaxPromptLength)
	g.record("prompt", text, matches, PIIReport{})
	return result
}

func (g *Guard) record(source, original string, matches []patternMatch, pii PIIReport) {
	for _, m := range matches {
		injectionMatches.WithLabelValues(m.category).Inc()
	}
	if len(matches) == 0 && !pii.Found() {
		return
	}

	level := riskLevel(matches, pii)
	event := g.logger.Warn()
	if level == RiskLow {
		event = g.logger.Info()
	}
	event.
		Str("source", source).
		Str("risk_level", level).
		Int("pattern_count", len(matches)).
		Strs("pattern_categories", matchCategories(matches)).
		Strs("pii_categories", pii.Categories).
		Str("sample", RedactPII(original, logSampleRunes)).
		Msg("security event during evaluation preparation")
}

func riskLevel(matches []patternMatch, pii PIIReport) string {
	if len(matches) >= 3 {
		return RiskHigh
	}
	for _, m := range matches {
		if m.category == CategoryControlToken || m.category == CategoryRoleTag {
			return RiskHigh
		}
	}
	if len(matches) > 0 {
		return RiskMedium
	}
	if pii.Found() {
		return RiskLow
	}
	return RiskNone
}

func matchCategories(matches []patternMatch) []string {
	seen := map[string]struct{}{}
	categories := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.category]; ok {
			continue
		}
		seen[m.category] = struct{}{}
		categories = append(categories, m.category)
	}
	sort.Strings(categories)
	return categories
}

var defaultGuard = NewGuard(nil, DefaultLimits(), zerolog.Nop())

// PrepareForEvaluation validates, scans and sanitizes text with the default
// limits and no logging.
func PrepareForEvaluation(text string) (PreparedText, error) {
	return defaultGuard.PrepareForEvaluation(text)
}
