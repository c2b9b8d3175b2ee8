package yaml_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/rulekit"
	"github.com/fwojciec/rulekit/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfile(t *testing.T) {
	t.Parallel()

	profile := yaml.DefaultProfile()
	require.NoError(t, profile.Validate())

	assert.NotEmpty(t, profile.Version)
	assert.Contains(t, profile.SectionHeaders, "en")
	assert.Contains(t, profile.SectionHeaders, "fr")
	assert.NotEmpty(t, profile.Labels)
	assert.NotEmpty(t, profile.ExcludeLine)

	name, ok := profile.ResolveLabel("Game board")
	require.True(t, ok)
	assert.Equal(t, "Game board", name)

	assert.True(t, profile.IsSupplyToken("treasury"))
	assert.True(t, profile.MatchSectionHeader("Contenu", "fr"))
	assert.True(t, profile.FormatAllowed("jpeg"))
	assert.False(t, profile.FormatAllowed("svg"))
	assert.Equal(t, 1.0, profile.ProviderWeight("publisher"))
	assert.Equal(t, 0.5, profile.ProviderWeight("someblog"))
}

func TestParse(t *testing.T) {
	t.Parallel()

	minimal := []byte(`
version: "test"
sectionHeaders:
  en: [components]
labels:
  - name: Cards
    synonyms: [cards]
`)

	t.Run("applies defaults for omitted thresholds", func(t *testing.T) {
		t.Parallel()
		profile, err := yaml.Parse(minimal)
		require.NoError(t, err)

		assert.Equal(t, 0.25, profile.FallbackDensity)
		assert.Equal(t, 2, profile.BlankRunLimit)
		assert.Equal(t, 200, profile.MinDimension)
		assert.Equal(t, 10, profile.DedupeMaxDistance)
		assert.Equal(t, 0.75, profile.Bands.High)
		assert.Equal(t, 0.5, profile.Bands.Medium)
		assert.Equal(t, 2.0, profile.HostRPS)
		assert.Equal(t, 0.5, profile.DefaultProviderWeight)
		assert.Equal(t, []string{"jpg", "png", "gif", "webp"}, profile.Formats)
		assert.Equal(t, 0.3, profile.Weights.Size)
	})

	t.Run("explicit zero thresholds survive defaulting", func(t *testing.T) {
		t.Parallel()
		profile, err := yaml.Parse([]byte(`
version: "test"
sectionHeaders:
  en: [components]
labels:
  - name: Cards
thresholds:
  fallbackDensity: 0
  dedupeMaxDistance: 0
`))
		require.NoError(t, err)
		assert.Equal(t, 0.0, profile.FallbackDensity)
		assert.Equal(t, 0, profile.DedupeMaxDistance)
	})

	t.Run("compiles OCR rules", func(t *testing.T) {
		t.Parallel()
		profile, err := yaml.Parse([]byte(`
version: "test"
sectionHeaders:
  en: [components]
labels:
  - name: Cards
ocrRules:
  - pattern: "\\bcards\\b"
    replace: "Cards"
`))
		require.NoError(t, err)
		require.Len(t, profile.OCRRules, 1)
		assert.Equal(t, "Cards", profile.OCRRules[0].Pattern.ReplaceAllString("cards", profile.OCRRules[0].Replace))
	})

	t.Run("rejects malformed YAML", func(t *testing.T) {
		t.Parallel()
		_, err := yaml.Parse([]byte("{version: "))
		require.Error(t, err)
		assert.Equal(t, rulekit.ECONFIG, rulekit.ErrorCode(err))
	})

	t.Run("rejects a bad OCR pattern", func(t *testing.T) {
		t.Parallel()
		_, err := yaml.Parse([]byte(`
version: "test"
sectionHeaders:
  en: [components]
labels:
  - name: Cards
ocrRules:
  - pattern: "[unterminated"
    replace: "x"
`))
		require.Error(t, err)
		assert.Equal(t, rulekit.ECONFIG, rulekit.ErrorCode(err))
	})

	t.Run("rejects a profile without labels", func(t *testing.T) {
		t.Parallel()
		_, err := yaml.Parse([]byte(`
version: "test"
sectionHeaders:
  en: [components]
`))
		require.Error(t, err)
		assert.Equal(t, rulekit.ECONFIG, rulekit.ErrorCode(err))
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("loads a profile from disk", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "profile.yml")
		doc := []byte(`
version: "disk"
sectionHeaders:
  en: [components]
labels:
  - name: Cards
`)
		require.NoError(t, os.WriteFile(path, doc, 0o644))

		profile, err := yaml.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "disk", profile.Version)
	})

	t.Run("reports a missing file", func(t *testing.T) {
		t.Parallel()
		_, err := yaml.Load(filepath.Join(t.TempDir(), "absent.yml"))
		require.Error(t, err)
		assert.Equal(t, rulekit.ECONFIG, rulekit.ErrorCode(err))
	})
}
