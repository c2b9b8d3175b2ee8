package rulekit

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// RewriteRule is one data-driven text rewrite applied by the normalizer.
// Rules are applied in order; Pattern is compiled once at profile load.
type RewriteRule struct {
	Pattern *regexp.Regexp
	Replace string
}

// CanonicalLabel maps a component's allowed name to the raw-text synonyms
// that resolve to it. Matching is case-insensitive.
type CanonicalLabel struct {
	Name     string
	Synonyms []string
}

// ExcludeRule maps one exclusion keyword to the dead-letter reason code
// recorded when a line matches it.
type ExcludeRule struct {
	Keyword string
	Reason  string
}

// ScoreWeights is the relevance scoring weight table. Weights are
// configuration, not policy: they are loaded with the profile and
// documented alongside it.
type ScoreWeights struct {
	Provider  float64
	Proximity float64
	Size      float64
	Quality   float64

	// FormatBonus is added for formats supporting transparency (png, webp).
	FormatBonus float64

	// AspectPenalty is subtracted when width:height exceeds MaxAspect
	// in either direction.
	AspectPenalty float64
	MaxAspect     float64
}

// BandThresholds maps a final score to a confidence band. A score ≥ High
// is BandHigh, ≥ Medium is BandMedium, anything lower is BandLow.
type BandThresholds struct {
	High   float64
	Medium float64
}

// Band returns the confidence band for a final score.
func (t BandThresholds) Band(score float64) ConfidenceBand {
	switch {
	case score >= t.High:
		return BandHigh
	case score >= t.Medium:
		return BandMedium
	default:
		return BandLow
	}
}

// GameProfile is the shared, immutable configuration resource consumed by
// both engines. It is loaded once at process start and never mutated.
type GameProfile struct {
	// Version identifies the profile revision for cache keying and audit.
	Version string

	// SectionHeaders maps a language code to the section-header synonyms
	// recognized in that language (components, contents, setup, ...).
	SectionHeaders map[string][]string

	// Labels is the conservative allowlist of component names with their
	// synonyms. Extraction never emits a name outside this table.
	Labels []CanonicalLabel

	// SupplyTokens are sentinel quantity words mapped to the symbolic
	// "supply" value (supply, unlimited, bank, reserve, treasury).
	SupplyTokens []string

	// ExcludeLine is the ordered exclusion rule table for text lines.
	// Lines matching a keyword are discarded and recorded, never parsed;
	// the first matching rule's reason code wins.
	ExcludeLine []ExcludeRule

	// ExcludeImage keywords reject image URLs/alt text (logo, icon, ...).
	ExcludeImage []string

	// RulesKeywords indicate instructional prose, used to find the end of
	// a components section and by the confidence gate.
	RulesKeywords []string

	// OCRRules are ordered rewrite rules correcting OCR confusions.
	OCRRules []RewriteRule

	// FallbackDensity is the minimum fraction of quantity-bearing lines
	// required to accept a no-section fallback extraction.
	FallbackDensity float64

	// BlankRunLimit is the blank-line run length that ends a section.
	BlankRunLimit int

	// MinDimension rejects images smaller than this in either dimension.
	MinDimension int

	// Formats is the allowed raster extension set (jpg, png, ...).
	Formats []string

	// ProviderWeights maps a provider name to its trust weight.
	// DefaultProviderWeight applies to unknown providers.
	ProviderWeights       map[string]float64
	DefaultProviderWeight float64

	Weights ScoreWeights
	Bands   BandThresholds

	// DedupeMaxDistance is the Hamming-distance cutoff (in bits) for two
	// hashes to be considered near-duplicates.
	DedupeMaxDistance int

	// HostRPS is the per-host politeness rate for image loading.
	HostRPS float64
}

// Validate returns an error if the profile is unusable. Profile errors are
// the only fatal error class: both engines refuse to start on a malformed
// profile.
func (p *GameProfile) Validate() error {
	if len(p.SectionHeaders) == 0 {
		return Errorf(ECONFIG, "profile requires at least one section header language")
	}
	if len(p.Labels) == 0 {
		return Errorf(ECONFIG, "profile requires a canonical label table")
	}
	for _, l := range p.Labels {
		if l.Name == "" {
			return Errorf(ECONFIG, "canonical label with empty name")
		}
	}
	if p.FallbackDensity < 0 || p.FallbackDensity > 1 {
		return Errorf(ECONFIG, "fallback density %v outside [0,1]", p.FallbackDensity)
	}
	if p.DedupeMaxDistance < 0 || p.DedupeMaxDistance > HashBits {
		return Errorf(ECONFIG, "dedupe distance %d outside [0,%d]", p.DedupeMaxDistance, HashBits)
	}
	if p.Bands.Medium > p.Bands.High {
		return Errorf(ECONFIG, "medium band threshold %v above high %v", p.Bands.Medium, p.Bands.High)
	}
	return nil
}

// ResolveLabel resolves raw text to a canonical component name through the
// synonym table. Matching is case-insensitive and prefers the longest
// matching synonym so "exploration cards" wins over "cards". Returns
// ("", false) when no synonym matches.
func (p *GameProfile) ResolveLabel(text string) (string, bool) {
	lowered := strings.ToLower(text)
	bestLen := 0
	bestName := ""
	for _, label := range p.Labels {
		for _, syn := range append([]string{label.Name}, label.Synonyms...) {
			s := strings.ToLower(syn)
			if len(s) <= bestLen {
				continue
			}
			if ContainsWord(lowered, s) {
				bestLen = len(s)
				bestName = label.Name
			}
		}
	}
	return bestName, bestName != ""
}

// IsSupplyToken reports whether a token is a sentinel supply quantity word.
func (p *GameProfile) IsSupplyToken(token string) bool {
	t := strings.ToLower(strings.TrimSpace(token))
	for _, s := range p.SupplyTokens {
		if t == strings.ToLower(s) {
			return true
		}
	}
	return false
}

// MatchSectionHeader reports whether a line is a recognized section header
// in any profile language, or in the hinted language only when hint is set
// and known to the profile.
func (p *GameProfile) MatchSectionHeader(line string, hint string) bool {
	lowered := strings.ToLower(strings.TrimSpace(line))
	lowered = strings.Trim(lowered, ":# ")
	if lowered == "" {
		return false
	}
	langs := p.SectionHeaders
	if hint != "" {
		if only, ok := p.SectionHeaders[hint]; ok {
			langs = map[string][]string{hint: only}
		}
	}
	for _, headers := range langs {
		for _, h := range headers {
			if ContainsWord(lowered, strings.ToLower(h)) {
				return true
			}
		}
	}
	return false
}

// ProviderWeight returns the trust weight for a provider, falling back to
// the profile default for unknown providers.
func (p *GameProfile) ProviderWeight(provider string) float64 {
	if w, ok := p.ProviderWeights[strings.ToLower(provider)]; ok {
		return w
	}
	return p.DefaultProviderWeight
}

// FormatAllowed reports whether an image format extension is in the
// allowed raster set.
func (p *GameProfile) FormatAllowed(format string) bool {
	f := strings.ToLower(strings.TrimPrefix(format, "."))
	if f == "jpeg" {
		f = "jpg"
	}
	for _, allowed := range p.Formats {
		if f == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// ContainsWord reports whether needle occurs in haystack on word
// boundaries, so "icon" does not match inside "iconography" label text.
// Callers are responsible for case folding.
func ContainsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		beforeOK := start == 0 || !isWordRune(decodeLastRune(haystack[:start]))
		afterOK := end == len(haystack) || !isWordRune(decodeRune(haystack[end:]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func decodeRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func decodeLastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
