package extract

import (
	"strings"

	"github.com/fwojciec/rulekit"
)

// maxHeaderLen bounds how long a line can be and still be considered a
// heading rather than prose.
const maxHeaderLen = 64

// section is a half-open line range [Start, End) inside the document.
type section struct {
	Start int
	End   int
}

// locateSection finds the components section in normalized document lines.
// The first line matching the profile's multilingual header synonyms wins.
// The end boundary is the first subsequent non-matching heading, a blank
// run past the profile limit, or a transition into instructional prose.
// Returns ok=false when no header is found; the caller defers to the
// confidence gate instead of guessing a boundary.
func locateSection(lines []string, profile *rulekit.GameProfile, hint string) (section, bool) {
	start := -1
	for i, line := range lines {
		if isHeading(line) && profile.MatchSectionHeader(line, hint) {
			start = i
			break
		}
	}
	if start < 0 {
		return section{}, false
	}

	blankLimit := profile.BlankRunLimit
	if blankLimit <= 0 {
		blankLimit = 2
	}

	blanks := 0
	for i := start + 1; i < len(lines); i++ {
		line := lines[i]

		if strings.TrimSpace(line) == "" {
			blanks++
			if blanks >= blankLimit {
				return section{Start: start + 1, End: i - blanks + 1}, true
			}
			continue
		}
		blanks = 0

		if isHeading(line) {
			// Matching headings continue the block: rulebooks often repeat
			// the components header per language appendix.
			if profile.MatchSectionHeader(line, hint) {
				continue
			}
			// An unmarked short line naming a known component is a
			// countless entry ("Plastic cups"), not a heading.
			if !isMarkedHeading(line) {
				if _, ok := profile.ResolveLabel(line); ok {
					continue
				}
			}
			return section{Start: start + 1, End: i}, true
		}

		if isProse(line, profile) {
			return section{Start: start + 1, End: i}, true
		}
	}
	return section{Start: start + 1, End: len(lines)}, true
}

// isHeading reports whether a line is shaped like a heading: short, either
// marked up (markdown #, trailing colon) or titled without sentence
// punctuation.
func isHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len(trimmed) > maxHeaderLen {
		return false
	}
	if isMarkedHeading(trimmed) {
		return true
	}
	// Unmarked headings: a few words, no sentence-ending punctuation,
	// and no leading count (a count means a component line).
	if strings.ContainsAny(trimmed, ".!?,;") {
		return false
	}
	if countRe.MatchString(trimmed) {
		return false
	}
	return len(strings.Fields(trimmed)) <= 5
}

// isMarkedHeading reports explicit heading markup: a markdown prefix or a
// trailing colon.
func isMarkedHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "#") || strings.HasSuffix(trimmed, ":")
}

// isProse reports whether a line reads like instructional rules text
// rather than a component entry, measured by rules-keyword density.
func isProse(line string, profile *rulekit.GameProfile) bool {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) < 6 {
		return false
	}
	if countRe.MatchString(line) {
		return false
	}
	hits := 0
	for _, f := range fields {
		f = strings.Trim(f, ".,:;()")
		for _, kw := range profile.RulesKeywords {
			if f == strings.ToLower(kw) {
				hits++
				break
			}
		}
	}
	return hits >= 2 || float64(hits)/float64(len(fields)) > 0.2
}
