// Package extract implements the rulebook text extraction engine: a pure,
// synchronous pipeline that normalizes OCR-degraded text, locates the
// components section via multilingual header synonyms, classifies candidate
// lines, parses quantities and breakdowns, and gates low-confidence
// fallback extractions.
package extract

import (
	"strings"

	"github.com/fwojciec/rulekit"
)

// Result holds the outcome of one extraction run.
type Result struct {
	// Components are the extracted components in document order.
	Components []rulekit.Component

	// DeadLetter records every intentionally-excluded line with a reason
	// code, for audit.
	DeadLetter []rulekit.DeadLetter

	// Fallback reports that no section header was found and the result
	// came from a gated whole-document scan.
	Fallback bool

	// Density is the quantity-line density computed by the confidence
	// gate. Only meaningful when Fallback is true or Components is empty.
	Density float64
}

// Engine extracts components from rulebook text. It holds no mutable
// state: Extract may be called concurrently from multiple goroutines.
type Engine struct {
	profile *rulekit.GameProfile
	audit   rulekit.AuditSink
}

// NewEngine creates an extraction engine. The profile is validated up
// front: a malformed profile is the only fatal error class, so it fails
// fast before any extraction begins. The audit sink may be nil.
func NewEngine(profile *rulekit.GameProfile, audit rulekit.AuditSink) (*Engine, error) {
	if profile == nil {
		return nil, rulekit.Errorf(rulekit.ECONFIG, "game profile required")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &Engine{profile: profile, audit: audit}, nil
}

// Extract parses raw rulebook text into components and a dead-letter list.
// It never fails on malformed input: parse problems are local, recorded
// with reason codes, and the pipeline continues. Running Extract twice on
// identical input yields identical results.
func (e *Engine) Extract(rawText, languageHint string) (*Result, error) {
	normalized := Normalize(rawText, e.profile)
	lines := strings.Split(normalized, "\n")

	sec, found := locateSection(lines, e.profile, languageHint)
	if found {
		result := e.classifyRange(lines[sec.Start:sec.End], false)
		return result, nil
	}

	// No section header: defer to the confidence gate. Below the density
	// threshold we refuse to guess on ordinary prose and return an empty
	// component list, which is a decision, not an error.
	density := quantityDensity(lines)
	if density < e.profile.FallbackDensity {
		e.record("gate", rulekit.DecisionDrop, "low_confidence_fallback_rejected", "")
		return &Result{Density: density}, nil
	}

	result := e.classifyRange(lines, true)
	result.Fallback = true
	result.Density = density
	return result, nil
}

// classifyRange classifies each line of the chosen range, collecting
// components and dead-letter records.
func (e *Engine) classifyRange(lines []string, fallback bool) *Result {
	result := &Result{}
	for _, line := range lines {
		c := classifyLine(line, e.profile, fallback)
		switch {
		case c.Component != nil:
			reason := c.Component.ConfidenceReason
			if fallback && reason == "" {
				c.Component.ConfidenceReason = rulekit.ReasonFallbackExtraction
			}
			result.Components = append(result.Components, *c.Component)
			e.record("classify", rulekit.DecisionAccept, c.Component.ConfidenceReason, line)
		case c.Dead != nil:
			result.DeadLetter = append(result.DeadLetter, *c.Dead)
			e.record("classify", rulekit.DecisionDrop, c.Dead.ReasonCode, line)
		}
	}
	return result
}

func (e *Engine) record(stage string, decision rulekit.Decision, reason, subject string) {
	if e.audit == nil {
		return
	}
	e.audit.Record(rulekit.AuditRecord{
		Stage:      stage,
		Decision:   decision,
		ReasonCode: reason,
		Subject:    strings.TrimSpace(subject),
	})
}
