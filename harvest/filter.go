package harvest

import (
	"strings"

	"github.com/fwojciec/rulekit"
)

// Filter drop reason codes.
const (
	dropBadURL       = "bad_url"
	dropTooSmall     = "below_min_dimension"
	dropBadFormat    = "disallowed_format"
	dropExcludedWord = "excluded_keyword"
)

// filterDescriptor applies the candidate filter to one descriptor whose
// URL already canonicalized to canonicalURL. Returns a drop reason code,
// or "" when the descriptor survives.
func filterDescriptor(desc *rulekit.ImageDescriptor, canonicalURL string, profile *rulekit.GameProfile) string {
	// Icons and artifacts: reject declared dimensions below the minimum.
	// Undeclared dimensions pass; the scorer handles the uncertainty.
	min := profile.MinDimension
	if min > 0 {
		if desc.Width > 0 && desc.Width < min {
			return dropTooSmall
		}
		if desc.Height > 0 && desc.Height < min {
			return dropTooSmall
		}
	}

	format := FormatOf(canonicalURL)
	if !profile.FormatAllowed(format) {
		return dropBadFormat
	}

	haystack := strings.ToLower(canonicalURL + " " + desc.Alt + " " + desc.Title)
	for _, kw := range profile.ExcludeImage {
		if rulekit.ContainsWord(haystack, strings.ToLower(kw)) {
			return dropExcludedWord
		}
	}
	return ""
}
