package safety

import (
	"regexp"
	"strings"
	"unicode"
)

// Rejection reasons reported by ValidateContent.
const (
	ReasonEmpty         = "empty"
	ReasonTooShort      = "too short"
	ReasonTooLong       = "too long"
	ReasonSpecialChars  = "too many special characters"
	ReasonTooRepetitive = "too repetitive"
)

const (
	defaultMinWords           = 50
	defaultMaxWords           = 1000
	defaultSpecialRatio       = 0.15
	defaultUniqueRatio        = 0.3
	defaultRepetitionMinWords = 100
)

// ValidationResult reports whether text passed the content-quality gate.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// ContentLimits configures the heuristic gates applied by ValidateContent.
type ContentLimits struct {
	MinWords            int
	MaxWords            int
	MaxSpecialCharRatio float64
	MinUniqueRatio      float64
	RepetitionMinWords  int
}

// DefaultContentLimits returns the limits used for written essays.
func DefaultContentLimits() ContentLimits {
	return ContentLimits{
		MinWords:            defaultMinWords,
		MaxWords:            defaultMaxWords,
		MaxSpecialCharRatio: defaultSpecialRatio,
		MinUniqueRatio:      defaultUniqueRatio,
		RepetitionMinWords:  defaultRepetitionMinWords,
	}
}

func (l ContentLimits) withDefaults() ContentLimits {
	d := DefaultContentLimits()
	if l.MinWords < 0 {
		l.MinWords = 0
	}
	if l.MaxWords <= 0 {
		l.MaxWords = d.MaxWords
	}
	if l.MaxSpecialCharRatio <= 0 {
		l.MaxSpecialCharRatio = d.MaxSpecialCharRatio
	}
	if l.MinUniqueRatio <= 0 {
		l.MinUniqueRatio = d.MinUniqueRatio
	}
	if l.RepetitionMinWords <= 0 {
		l.RepetitionMinWords = d.RepetitionMinWords
	}
	return l
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’-][\p{L}\p{N}]+)*`)

// Words splits text into word tokens.
func Words(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// WordCount returns the number of word tokens in text.
func WordCount(text string) int {
	return len(Words(text))
}

// ValidateContent applies the default essay limits.
func ValidateContent(text string) ValidationResult {
	return ValidateContentWithLimits(text, DefaultContentLimits())
}

// ValidateContentWithLimits gates text on emptiness, word count, special
// character density and repetition. The first failing check wins.
func ValidateContentWithLimits(text string, limits ContentLimits) ValidationResult {
	limits = limits.withDefaults()

	if strings.TrimSpace(text) == "" {
		return ValidationResult{Reason: ReasonEmpty}
	}

	words := Words(text)
	switch {
	case len(words) < limits.MinWords:
		return ValidationResult{Reason: ReasonTooShort}
	case len(words) > limits.MaxWords:
		return ValidationResult{Reason: ReasonTooLong}
	}

	if specialCharRatio(text) > limits.MaxSpecialCharRatio {
		return ValidationResult{Reason: ReasonSpecialChars}
	}

	if len(words) > limits.RepetitionMinWords && uniqueRatio(words) < limits.MinUniqueRatio {
		return ValidationResult{Reason: ReasonTooRepetitive}
	}

	return ValidationResult{Valid: true}
}

const prosePunctuation = ".,;:!?'\"()-/&%$€£–—‘’“”…"

func specialCharRatio(text string) float64 {
	total, special := 0, 0
	for _, r := range text {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || strings.ContainsRune(prosePunctuation, r) {
			continue
		}
		special++
	}
	if total == 0 {
		return 0
	}
	return float64(special) / float64(total)
}

func uniqueRatio(words []string) float64 {
	if len(words) == 0 {
		return 1
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}
