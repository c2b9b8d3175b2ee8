package extract

import (
	"regexp"
	"strings"

	"github.com/fwojciec/rulekit"
)

// baseRules are the built-in rewrite rules applied before any profile
// rules. Order matters: punctuation folding runs before OCR digit fixes so
// the digit patterns see plain hyphens.
var baseRules = []rulekit.RewriteRule{
	// Smart quotes to plain quotes.
	{Pattern: regexp.MustCompile("[‘’‚‛]"), Replace: "'"},
	{Pattern: regexp.MustCompile("[“”„‟]"), Replace: `"`},
	// En/em dashes and the minus sign to plain hyphens.
	{Pattern: regexp.MustCompile("[–—−]"), Replace: "-"},
	// OCR confusions inside digit runs: letter O for zero, l/I for one.
	{Pattern: regexp.MustCompile(`(\d)[oO](\d)`), Replace: "${1}0${2}"},
	{Pattern: regexp.MustCompile(`\b[oO](\d)`), Replace: "0${1}"},
	{Pattern: regexp.MustCompile(`(\d)[oO]\b`), Replace: "${1}0"},
	{Pattern: regexp.MustCompile(`(\d)[lI](\d)`), Replace: "${1}1${2}"},
	{Pattern: regexp.MustCompile(`\b[lI](\d)`), Replace: "1${1}"},
	// Dangling separators between a leading count and its label:
	// "5 - Gold coins" / "5: Gold coins" become "5 Gold coins".
	{Pattern: regexp.MustCompile(`(?m)^(\s*\d+)\s*[-:]\s+`), Replace: "${1} "},
	// Trailing stray punctuation after a count: "Cards: 10 -" → "Cards: 10".
	{Pattern: regexp.MustCompile(`(?m)(\d)\s*[-:;]\s*$`), Replace: "${1}"},
}

// Normalize corrects common OCR confusions, folds smart punctuation, and
// collapses immediately-repeated words. It is a pure function: unmappable
// characters pass through unchanged and it never fails.
func Normalize(text string, profile *rulekit.GameProfile) string {
	for _, rule := range baseRules {
		text = rule.Pattern.ReplaceAllString(text, rule.Replace)
	}
	if profile != nil {
		for _, rule := range profile.OCRRules {
			text = rule.Pattern.ReplaceAllString(text, rule.Replace)
		}
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = collapseRepeats(line)
	}
	return strings.Join(lines, "\n")
}

// collapseRepeats removes immediately-repeated words within a line
// ("Plastic Plastic Cups" → "Plastic Cups"). Comparison is
// case-insensitive; the first occurrence's casing is kept. Done by token
// walk because RE2 has no backreferences.
func collapseRepeats(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return line
	}

	out := fields[:1]
	for _, f := range fields[1:] {
		if strings.EqualFold(f, out[len(out)-1]) {
			continue
		}
		out = append(out, f)
	}
	if len(out) == len(fields) {
		return line
	}

	// Preserve leading indentation; interior spacing is renormalized.
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	return indent + strings.Join(out, " ")
}
