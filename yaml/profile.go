// Package yaml loads GameProfile resources from YAML documents. Profiles
// are versioned, human-editable configuration loaded once at process start;
// a malformed profile fails fast before any extraction begins.
package yaml

import (
	_ "embed"
	"os"
	"regexp"

	"github.com/fwojciec/rulekit"
	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultYAML []byte

// profileFile mirrors the YAML document structure.
type profileFile struct {
	Version        string              `yaml:"version"`
	SectionHeaders map[string][]string `yaml:"sectionHeaders"`
	Labels         []struct {
		Name     string   `yaml:"name"`
		Synonyms []string `yaml:"synonyms"`
	} `yaml:"labels"`
	SupplyTokens []string `yaml:"supplyTokens"`
	ExcludeLines []struct {
		Keyword string `yaml:"keyword"`
		Reason  string `yaml:"reason"`
	} `yaml:"excludeLines"`
	ExcludeImages []string `yaml:"excludeImages"`
	RulesKeywords []string `yaml:"rulesKeywords"`
	OCRRules      []struct {
		Pattern string `yaml:"pattern"`
		Replace string `yaml:"replace"`
	} `yaml:"ocrRules"`
	Thresholds struct {
		FallbackDensity   *float64 `yaml:"fallbackDensity"`
		BlankRunLimit     *int     `yaml:"blankRunLimit"`
		MinDimension      *int     `yaml:"minDimension"`
		DedupeMaxDistance *int     `yaml:"dedupeMaxDistance"`
		Bands             struct {
			High   *float64 `yaml:"high"`
			Medium *float64 `yaml:"medium"`
		} `yaml:"bands"`
		HostRPS *float64 `yaml:"hostRps"`
	} `yaml:"thresholds"`
	Formats   []string `yaml:"formats"`
	Providers struct {
		Default float64            `yaml:"default"`
		Weights map[string]float64 `yaml:"weights"`
	} `yaml:"providers"`
	Weights struct {
		Provider      *float64 `yaml:"provider"`
		Proximity     *float64 `yaml:"proximity"`
		Size          *float64 `yaml:"size"`
		Quality       *float64 `yaml:"quality"`
		FormatBonus   *float64 `yaml:"formatBonus"`
		AspectPenalty *float64 `yaml:"aspectPenalty"`
		MaxAspect     *float64 `yaml:"maxAspect"`
	} `yaml:"weights"`
}

// DefaultProfile returns the embedded default profile. It panics only if
// the embedded document is itself broken, which a unit test guards.
func DefaultProfile() *rulekit.GameProfile {
	profile, err := Parse(defaultYAML)
	if err != nil {
		panic(err)
	}
	return profile
}

// Load reads and parses a profile document from disk.
func Load(path string) (*rulekit.GameProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rulekit.Errorf(rulekit.ECONFIG, "read profile %s: %v", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML profile document, applies defaults for omitted
// thresholds, compiles rewrite rules, and validates the result.
func Parse(data []byte) (*rulekit.GameProfile, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, rulekit.Errorf(rulekit.ECONFIG, "malformed profile: %v", err)
	}

	profile := &rulekit.GameProfile{
		Version:               file.Version,
		SectionHeaders:        file.SectionHeaders,
		SupplyTokens:          file.SupplyTokens,
		ExcludeImage:          file.ExcludeImages,
		RulesKeywords:         file.RulesKeywords,
		Formats:               file.Formats,
		ProviderWeights:       file.Providers.Weights,
		DefaultProviderWeight: file.Providers.Default,
	}

	for _, l := range file.Labels {
		profile.Labels = append(profile.Labels, rulekit.CanonicalLabel{
			Name:     l.Name,
			Synonyms: l.Synonyms,
		})
	}
	for _, e := range file.ExcludeLines {
		profile.ExcludeLine = append(profile.ExcludeLine, rulekit.ExcludeRule{
			Keyword: e.Keyword,
			Reason:  e.Reason,
		})
	}
	for _, r := range file.OCRRules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, rulekit.Errorf(rulekit.ECONFIG, "bad OCR rule pattern %q: %v", r.Pattern, err)
		}
		profile.OCRRules = append(profile.OCRRules, rulekit.RewriteRule{
			Pattern: re,
			Replace: r.Replace,
		})
	}

	t := file.Thresholds
	profile.FallbackDensity = floatOr(t.FallbackDensity, 0.25)
	profile.BlankRunLimit = intOr(t.BlankRunLimit, 2)
	profile.MinDimension = intOr(t.MinDimension, 200)
	profile.DedupeMaxDistance = intOr(t.DedupeMaxDistance, 10)
	profile.Bands = rulekit.BandThresholds{
		High:   floatOr(t.Bands.High, 0.75),
		Medium: floatOr(t.Bands.Medium, 0.5),
	}
	profile.HostRPS = floatOr(t.HostRPS, 2)

	w := file.Weights
	profile.Weights = rulekit.ScoreWeights{
		Provider:      floatOr(w.Provider, 0.25),
		Proximity:     floatOr(w.Proximity, 0.25),
		Size:          floatOr(w.Size, 0.3),
		Quality:       floatOr(w.Quality, 0.2),
		FormatBonus:   floatOr(w.FormatBonus, 0.05),
		AspectPenalty: floatOr(w.AspectPenalty, 0.2),
		MaxAspect:     floatOr(w.MaxAspect, 3),
	}

	if len(profile.Formats) == 0 {
		profile.Formats = []string{"jpg", "png", "gif", "webp"}
	}
	if profile.DefaultProviderWeight == 0 {
		profile.DefaultProviderWeight = 0.5
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
