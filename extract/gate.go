package extract

import "strings"

// quantityDensity returns the fraction of non-blank lines that look like
// quantity-bearing component lines (the same lexical shape the classifier
// uses: a leading integer count followed by words). This is the input to
// the confidence gate that decides whether a no-section fallback
// extraction is trustworthy: without it, any prose containing a stray
// digit would produce spurious components.
func quantityDensity(lines []string) float64 {
	total := 0
	bearing := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		total++
		if countRe.MatchString(strings.TrimSpace(line)) {
			bearing++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(bearing) / float64(total)
}
