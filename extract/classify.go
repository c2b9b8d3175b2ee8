package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fwojciec/rulekit"
)

var (
	// countRe matches a leading integer count: "71 Exploration cards".
	countRe = regexp.MustCompile(`^\s*(\d{1,4})\s*[x×]?\s+(\p{L}.*)$`)

	// parenRe captures the first parenthetical detail on a line.
	parenRe = regexp.MustCompile(`\(([^)]*)\)`)

	// multiplierRe matches one multiplier-list part: "2×4", "2x4",
	// or "2 of value 4". The first number is the item count, the second
	// the item's value.
	multiplierRe = regexp.MustCompile(`^\s*(\d+)\s*(?:[x×]\s*|of\s+value\s+)(\d+)\s*$`)

	// enumRe matches one enumeration part: "65 Allies".
	enumRe = regexp.MustCompile(`^\s*(\d+)\s+(\p{L}[\p{L}\p{N} '-]*?)\s*$`)
)

// classified is the outcome of classifying one candidate line: exactly one
// of Component or Dead is set, or neither when the line carries no signal.
type classified struct {
	Component *rulekit.Component
	Dead      *rulekit.DeadLetter
}

// classifyLine recognizes a leading count, sentinel supply tokens, and a
// canonical component name on one normalized line. In fallback mode
// (no located section) lines without a quantity are dead-lettered instead
// of kept, since the whole document is being scanned.
func classifyLine(line string, profile *rulekit.GameProfile, fallback bool) classified {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return classified{}
	}

	// Exclusion rules win over everything: reward text, captions, and
	// instructional prose are recorded, never parsed. The table is
	// ordered, so the first matching rule's reason code wins.
	lowered := strings.ToLower(trimmed)
	for _, rule := range profile.ExcludeLine {
		if rulekit.ContainsWord(lowered, strings.ToLower(rule.Keyword)) {
			return classified{Dead: &rulekit.DeadLetter{Line: trimmed, ReasonCode: rule.Reason}}
		}
	}

	paren := ""
	if m := parenRe.FindStringSubmatch(trimmed); m != nil {
		paren = strings.TrimSpace(m[1])
	}
	body := strings.TrimSpace(parenRe.ReplaceAllString(trimmed, " "))

	count := rulekit.QuantityUnknown()
	label := body
	if m := countRe.FindStringSubmatch(body); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			count = rulekit.QuantityOf(n)
			label = m[2]
		}
	}

	reason := ""
	if !count.Known && hasSupplyToken(trimmed, profile) {
		count = rulekit.QuantitySupply()
		reason = rulekit.ReasonSupplyQuantity
	}

	name, ok := profile.ResolveLabel(label)
	if !ok {
		if count.Known {
			return classified{Dead: &rulekit.DeadLetter{Line: trimmed, ReasonCode: rulekit.DropUnrecognizedLabel}}
		}
		return classified{}
	}

	if !count.Known && fallback {
		return classified{Dead: &rulekit.DeadLetter{Line: trimmed, ReasonCode: rulekit.DropNoQuantity}}
	}

	comp := &rulekit.Component{
		CanonicalName:    name,
		Count:            count,
		ConfidenceReason: reason,
	}

	if paren != "" {
		breakdown, isBreakdown := parseBreakdown(paren)
		switch {
		case isBreakdown:
			comp.Breakdown = breakdown
			if count.IsInt() && sumParts(breakdown) != count.N {
				comp.ConfidenceReason = rulekit.ReasonBreakdownSumMismatch
			}
		default:
			comp.Note = paren
		}
	}

	return classified{Component: comp}
}

// parseBreakdown parses parenthetical detail in the two supported
// notations: multiplier lists ("2×4, 9×3, 9×2" reads as 2 items of value 4,
// and so on) and enumerations joined by "&"/"and" ("65 Allies & 6 Monsters").
// Multiplier notation is tried first; a part that fits neither notation
// makes the whole parenthetical a note, not a breakdown.
func parseBreakdown(paren string) ([]rulekit.BreakdownPart, bool) {
	parts := splitParts(paren)
	if len(parts) == 0 {
		return nil, false
	}

	multipliers := make([]rulekit.BreakdownPart, 0, len(parts))
	allMultipliers := true
	for _, p := range parts {
		m := multiplierRe.FindStringSubmatch(p)
		if m == nil {
			allMultipliers = false
			break
		}
		n, _ := strconv.Atoi(m[1])
		multipliers = append(multipliers, rulekit.BreakdownPart{
			Label: "value " + m[2],
			Value: n,
		})
	}
	if allMultipliers {
		return multipliers, true
	}

	enums := make([]rulekit.BreakdownPart, 0, len(parts))
	for _, p := range parts {
		m := enumRe.FindStringSubmatch(p)
		if m == nil {
			return nil, false
		}
		n, _ := strconv.Atoi(m[1])
		enums = append(enums, rulekit.BreakdownPart{
			Label: strings.TrimSpace(m[2]),
			Value: n,
		})
	}
	return enums, true
}

// partSepRe splits parenthetical detail on commas, "&", and the word "and".
var partSepRe = regexp.MustCompile(`\s*(?:,|&|\band\b)\s*`)

// splitParts splits parenthetical detail into segments, dropping empties
// ("2 of value 4, 9 of value 3, and 9 of value 2" → three parts).
func splitParts(s string) []string {
	raw := partSepRe.Split(s, -1)
	parts := raw[:0]
	for _, p := range raw {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func sumParts(parts []rulekit.BreakdownPart) int {
	sum := 0
	for _, p := range parts {
		sum += p.Value
	}
	return sum
}

// hasSupplyToken reports whether any word of the line (including its
// parenthetical) is a sentinel supply token.
func hasSupplyToken(line string, profile *rulekit.GameProfile) bool {
	for _, f := range strings.FieldsFunc(line, func(r rune) bool {
		return !isLetter(r)
	}) {
		if profile.IsSupplyToken(f) {
			return true
		}
	}
	return false
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r > 127
}
