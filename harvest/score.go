package harvest

import (
	"math"
	"strings"

	"github.com/fwojciec/rulekit"
)

// sizeRefArea is the pixel area at which the log-scaled size score
// saturates at 1.0 (roughly a 2000×2000 image). The log scale prevents
// very large images from dominating the final score unboundedly.
const sizeRefArea = 4_000_000

// unknownSizeScore is the neutral size score for images without declared
// dimensions.
const unknownSizeScore = 0.25

// proximityScore maps DOM distance from the nearest recognized section
// header to (0, 1]. Distance -1 means no header was recognized.
func proximityScore(sectionDistance int) float64 {
	if sectionDistance < 0 {
		return 0.2
	}
	return 1 / (1 + float64(sectionDistance)/8)
}

// sizeScore is a monotonic, log-scaled function of pixel area.
func sizeScore(width, height int) float64 {
	area := width * height
	if area <= 0 {
		return unknownSizeScore
	}
	s := math.Log1p(float64(area)) / math.Log1p(sizeRefArea)
	return math.Min(s, 1)
}

// qualityScore is a coarse focus/sharpness proxy computed from descriptor
// signals only: declared dimensions, alt text, and URL hints. No image
// content recognition is attempted.
func qualityScore(desc *rulekit.ImageDescriptor, canonicalURL string) float64 {
	score := 0.5
	if desc.Width > 0 && desc.Height > 0 {
		score += 0.2
	}
	if strings.TrimSpace(desc.Alt) != "" {
		score += 0.1
	}
	lowered := strings.ToLower(canonicalURL)
	switch {
	case strings.Contains(lowered, "thumb"), strings.Contains(lowered, "preview"),
		strings.Contains(lowered, "small"):
		score -= 0.2
	case strings.Contains(lowered, "original"), strings.Contains(lowered, "large"),
		strings.Contains(lowered, "full"):
		score += 0.2
	}
	return clamp01(score)
}

// transparentFormats get the profile's format bonus.
var transparentFormats = map[string]bool{"png": true, "webp": true, "gif": true}

// scoreCandidate computes the candidate's component scores and the
// weighted final score with additive format/aspect adjustments. All
// weights come from the profile.
func scoreCandidate(desc *rulekit.ImageDescriptor, canonicalURL string, profile *rulekit.GameProfile) rulekit.ImageCandidate {
	w := profile.Weights
	cand := rulekit.ImageCandidate{
		SourceURL:      desc.URL,
		CanonicalURL:   canonicalURL,
		Width:          desc.Width,
		Height:         desc.Height,
		Format:         FormatOf(canonicalURL),
		AltText:        desc.Alt,
		Provider:       desc.Provider,
		ProximityScore: proximityScore(desc.SectionDistance),
		SizeScore:      sizeScore(desc.Width, desc.Height),
		QualityScore:   qualityScore(desc, canonicalURL),
	}

	final := w.Provider*profile.ProviderWeight(desc.Provider) +
		w.Proximity*cand.ProximityScore +
		w.Size*cand.SizeScore +
		w.Quality*cand.QualityScore

	if transparentFormats[cand.Format] {
		final += w.FormatBonus
	}
	if extremeAspect(desc.Width, desc.Height, w.MaxAspect) {
		final -= w.AspectPenalty
	}

	cand.FinalScore = final
	cand.ConfidenceBand = profile.Bands.Band(final)
	return cand
}

// extremeAspect reports a width:height ratio beyond maxAspect in either
// direction. Unknown dimensions are never penalized.
func extremeAspect(width, height int, maxAspect float64) bool {
	if width <= 0 || height <= 0 || maxAspect <= 0 {
		return false
	}
	ratio := float64(width) / float64(height)
	return ratio > maxAspect || ratio < 1/maxAspect
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
