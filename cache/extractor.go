package cache

import (
	"time"

	"github.com/fwojciec/rulekit/extract"
)

// extractor is the call contract of the text extraction engine.
type extractor interface {
	Extract(rawText, languageHint string) (*extract.Result, error)
}

// Extractor memoizes extraction results keyed on input text, language hint,
// and profile version. Extraction is deterministic for a fixed profile, so
// a cached result is indistinguishable from a fresh one.
type Extractor struct {
	next    extractor
	results *Cache[*extract.Result]
	version string
}

// NewExtractor wraps an extraction engine with a result cache. The profile
// version is part of every key, so loading a new profile revision
// invalidates prior results without explicit flushing.
func NewExtractor(next extractor, profileVersion string, capacity int, ttl time.Duration, clock Clock) *Extractor {
	return &Extractor{
		next:    next,
		results: New[*extract.Result](capacity, ttl, clock),
		version: profileVersion,
	}
}

// Extract returns the cached result for identical input, computing it at
// most once under concurrent identical requests.
func (e *Extractor) Extract(rawText, languageHint string) (*extract.Result, error) {
	key := Key(e.version, languageHint, rawText)
	return e.results.GetOrCompute(key, func() (*extract.Result, error) {
		return e.next.Extract(rawText, languageHint)
	})
}
