package safety

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// PII categories surfaced to callers and security logs.
const (
	PIIEmail        = "email address"
	PIIPhone        = "phone number"
	PIICardNumber   = "card number"
	PIINationalID   = "national ID number"
	PIIURL          = "web address"
	PIISelfIntro    = "personal name"
	redactionFormat = "[REDACTED:%s]"
)

type piiDetector struct {
	category string
	label    string
	re       *regexp.Regexp
}

var piiDetectors = []piiDetector{
	{PIIEmail, "email", regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)},
	{PIIURL, "url", regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"']+`)},
	{PIICardNumber, "card", regexp.MustCompile(`\b\d{4}[ -]?\d{4}[ -]?\d{4}[ -]?\d{1,4}\b`)},
	{PIINationalID, "national_id", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{PIIPhone, "phone", regexp.MustCompile(`(?:\+\d{1,3}[\s.-]?\(?\d{1,4}\)?[\s.-]?\d{3,4}[\s.-]?\d{3,4}\b)|(?:\(?\b\d{3}\)?[\s.-]\d{3}[\s.-]\d{4}\b)`)},
	{PIISelfIntro, "name", regexp.MustCompile(`(?i:\bmy\s+(?:full\s+)?name\s+is)\s+\p{Lu}\p{Ll}+(?:\s+\p{Lu}\p{Ll}+)?`)},
}

// PIIReport summarises personal information found in a submission.
type PIIReport struct {
	Categories []string
	Matches    int
}

// Found reports whether any PII was detected.
func (r PIIReport) Found() bool {
	return r.Matches > 0
}

// Warning renders a user-facing notice, or an empty string when nothing was found.
func (r PIIReport) Warning() string {
	if !r.Found() {
		return ""
	}
	return fmt.Sprintf("Your submission appears to contain personal information (%s). Consider removing it before submitting.", strings.Join(r.Categories, ", "))
}

// ScanPII looks for personally identifiable information in text. It never
// modifies the text.
func ScanPII(text string) PIIReport {
	var report PIIReport
	seen := map[string]struct{}{}
	for _, d := range piiDetectors {
		n := len(d.re.FindAllStringIndex(text, -1))
		if n == 0 {
			continue
		}
		report.Matches += n
		if _, ok := seen[d.category]; !ok {
			seen[d.category] = struct{}{}
			report.Categories = append(report.Categories, d.category)
		}
	}
	sort.Strings(report.Categories)
	return report
}

// RedactPII replaces detected PII with typed redaction markers and caps the
// result at maxRunes, for use in logs.
func RedactPII(text string, maxRunes int) string {
	for _, d := range piiDetectors {
		text = d.re.ReplaceAllLiteralString(text, fmt.Sprintf(redactionFormat, d.label))
	}
	if maxRunes > 0 {
		if cut := truncateRunes(text, maxRunes); len(cut) < len(text) {
			return cut + "…"
		}
	}
	return text
}
