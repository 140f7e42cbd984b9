package safety

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern categories reported in metrics and security events.
const (
	CategoryInstructionOverride = "instruction_override"
	CategoryPromptExtraction    = "prompt_extraction"
	CategoryRoleHijack          = "role_hijack"
	CategoryControlToken        = "control_token"
	CategoryRoleTag             = "role_tag"
	CategoryModeBypass          = "mode_bypass"
	CategoryScoreManipulation   = "score_manipulation"
	CategoryCustom              = "custom"
)

// InjectionPattern is one entry of the prompt-injection catalog.
type InjectionPattern struct {
	Category   string
	Expression string
}

// DefaultInjectionPatterns is the built-in catalog. Expressions are matched
// case-insensitively and every occurrence is replaced.
var DefaultInjectionPatterns = []InjectionPattern{
	{CategoryInstructionOverride, `\b(ignore|disregard|forget|skip|override)\s+(all\s+|any\s+|the\s+)?(of\s+the\s+)?(previous|prior|above|earlier|preceding|system)\s+(instructions?|prompts?|context|rules|directions|messages?)`},
	{CategoryInstructionOverride, `\bdisregard\s+(all\s+|everything\s+)?(of\s+)?(the\s+)?above\b`},
	{CategoryInstructionOverride, `\bforget\s+(everything|all)\s+(you\s+(were|have\s+been)\s+told|above|before)\b`},
	{CategoryInstructionOverride, `\bnew\s+instructions?\s*:`},
	{CategoryInstructionOverride, `\bfrom\s+now\s+on,?\s+you\s+(are|will|must|should)\b`},

	{CategoryPromptExtraction, `\b(what|tell\s+me)\s+(are|were|is)\s+your\s+(system\s+|original\s+|initial\s+)?(instructions?|prompts?|rules|guidelines)\b`},
	{CategoryPromptExtraction, `\b(reveal|show|print|display|repeat|output|leak)\s+(me\s+)?(your|the)\s+(system\s+|initial\s+|original\s+|hidden\s+)?(prompt|instructions?)\b`},

	{CategoryRoleHijack, `\byou\s+are\s+now\s+(a|an|the|my|in|DAN)\b`},
	{CategoryRoleHijack, `\bpretend\s+(that\s+)?(you\s+are|you're|to\s+be)\b`},
	{CategoryRoleHijack, `\bact\s+as\s+(if\s+you|an?|the|my)\b`},
	{CategoryRoleHijack, `\broleplay\s+as\b`},

	{CategoryControlToken, `\[/?INST\]`},
	{CategoryControlToken, `<</?SYS>>`},
	{CategoryControlToken, `<\|[^|<>\n]{0,40}\|>`},
	{CategoryControlToken, "```\\s*(system|assistant|user)\\b"},
	{CategoryControlToken, `#{3,}\s*(system|instructions?)\b`},

	{CategoryRoleTag, `</?\s*(system|assistant|user|human|ai|instructions?)\s*>`},
	{CategoryRoleTag, `(?m)(?:^|[\r\x{85}\x{2028}\x{2029}])[ \t\f\v\p{Zs}]*(system|assistant)[ \t\f\v\p{Zs}]*:`},

	{CategoryModeBypass, `\b(developer|debug|god|admin|unrestricted)\s+mode\b`},
	{CategoryModeBypass, `\bbypass\s+(the\s+|your\s+|all\s+|any\s+)?(safety\s+|content\s+)?(filters?|restrictions?|rules|guidelines|safeguards)\b`},
	{CategoryModeBypass, `\bjailbreak(ed|ing)?\b`},

	{CategoryScoreManipulation, `\b(give|award|assign|grant)\s+(me|this(\s+(essay|response|answer))?|it)\s+(an?\s+)?(perfect\s+)?(band\s+)?(score\s+)?(of\s+)?(9|nine)(\.0)?\b`},
}

type compiledPattern struct {
	category string
	re       *regexp.Regexp
}

// builtInWhitespace widens \s in the built-in catalog to every character the
// whitespace normalizer collapses, so normalization never exposes a new match.
const builtInWhitespace = `[\s\v\p{Zs}\x{85}\x{2028}\x{2029}]`

func compilePatterns(patterns []InjectionPattern, widen bool) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		expr := p.Expression
		if widen {
			expr = strings.ReplaceAll(expr, `\s`, builtInWhitespace)
		}
		if !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile injection pattern %q: %w", p.Expression, err)
		}
		category := p.Category
		if category == "" {
			category = CategoryCustom
		}
		compiled = append(compiled, compiledPattern{category: category, re: re})
	}
	return compiled, nil
}
