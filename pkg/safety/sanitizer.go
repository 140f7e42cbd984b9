package safety

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Length ceilings applied before text is embedded in an evaluation prompt.
const (
	MaxEssayLength  = 5000
	MaxPromptLength = 2000
)

// FilteredMarker replaces every matched injection span.
const FilteredMarker = "[FILTERED]"

// SanitizationResult is the outcome of a single SanitizeInput call.
type SanitizationResult struct {
	Sanitized       string   `json:"sanitized"`
	WasModified     bool     `json:"was_modified"`
	RemovedPatterns []string `json:"removed_patterns"`
}

// Sanitizer cleans user-authored text before it is placed inside an LLM prompt.
// A Sanitizer holds only compiled, read-only patterns and is safe for
// concurrent use.
type Sanitizer struct {
	patterns []compiledPattern
}

var (
	horizontalSpace  = regexp.MustCompile(`[\t\f\v\p{Zs}]+`)
	spaceAroundBreak = regexp.MustCompile(` ?\n ?`)
	excessBreaks     = regexp.MustCompile(`\n{3,}`)
	angleEscaper     = strings.NewReplacer("<", "&lt;", ">", "&gt;")
	// NEL, LS and PS are treated as line breaks.
	lineBreaks       = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\u0085", "\n", "\u2028", "\n", "\u2029", "\n")
)

// NewSanitizer builds a sanitizer from the built-in catalog plus any custom
// patterns. Custom expressions are compiled case-insensitively as written.
func NewSanitizer(custom ...InjectionPattern) (*Sanitizer, error) {
	builtIn, err := compilePatterns(DefaultInjectionPatterns, true)
	if err != nil {
		return nil, err
	}
	extra, err := compilePatterns(custom, false)
	if err != nil {
		return nil, err
	}
	return &Sanitizer{patterns: append(builtIn, extra...)}, nil
}

// MustNewSanitizer is like NewSanitizer but panics on an invalid pattern.
func MustNewSanitizer(custom ...InjectionPattern) *Sanitizer {
	s, err := NewSanitizer(custom...)
	if err != nil {
		panic(err)
	}
	return s
}

type patternMatch struct {
	category string
	text     string
}

// Sanitize truncates, filters injection patterns, normalizes whitespace and
// escapes angle brackets, in that order. A non-positive maxLength falls back to
// MaxEssayLength.
func (s *Sanitizer) Sanitize(input string, maxLength int) SanitizationResult {
	result, _ := s.sanitize(input, maxLength)
	return result
}

func (s *Sanitizer) sanitize(input string, maxLength int) (SanitizationResult, []patternMatch) {
	if maxLength <= 0 {
		maxLength = MaxEssayLength
	}

	modified := false
	text := input
	if utf8.RuneCountInString(text) > maxLength {
		text = truncateRunes(text, maxLength)
		modified = true
	}

	var matches []patternMatch
	for _, p := range s.patterns {
		found := p.re.FindAllString(text, -1)
		if len(found) == 0 {
			continue
		}
		for _, m := range found {
			matches = append(matches, patternMatch{category: p.category, text: m})
		}
		text = p.re.ReplaceAllLiteralString(text, FilteredMarker)
		modified = true
	}

	normalized := normalizeWhitespace(text)
	if normalized != text {
		modified = true
	}

	escaped := angleEscaper.Replace(normalized)
	if escaped != normalized {
		modified = true
	}

	// Filtering and escaping can grow the text past the ceiling.
	if utf8.RuneCountInString(escaped) > maxLength {
		escaped = boundEscaped(escaped, maxLength)
		modified = true
	}

	removed := make([]string, 0, len(matches))
	for _, m := range matches {
		removed = append(removed, m.text)
	}

	return SanitizationResult{
		Sanitized:       escaped,
		WasModified:     modified,
		RemovedPatterns: removed,
	}, matches
}

func normalizeWhitespace(text string) string {
	text = lineBreaks.Replace(text)
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = spaceAroundBreak.ReplaceAllString(text, "\n")
	text = excessBreaks.ReplaceAllString(text, "\n\n")
	return strings.Trim(text, " \n")
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}

// boundEscaped cuts escaped text to limit runes without leaving half an entity
// or trailing whitespace behind.
func boundEscaped(text string, limit int) string {
	cut := truncateRunes(text, limit)
	if amp := strings.LastIndexByte(cut, '&'); amp >= 0 {
		tail := cut[amp:]
		if tail != "&lt;" && tail != "&gt;" && (strings.HasPrefix("&lt;", tail) || strings.HasPrefix("&gt;", tail)) {
			cut = cut[:amp]
		}
	}
	return strings.TrimSpace(cut)
}

var defaultSanitizer = MustNewSanitizer()

// SanitizeInput cleans input with the built-in catalog and the given length
// ceiling.
func SanitizeInput(input string, maxLength int) SanitizationResult {
	return defaultSanitizer.Sanitize(input, maxLength)
}
