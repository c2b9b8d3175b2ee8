package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/rulekit"
	"github.com/fwojciec/rulekit/extract"
	"github.com/fwojciec/rulekit/harvest"
)

// extractor is the call contract of the text extraction engine.
type extractor interface {
	Extract(rawText, languageHint string) (*extract.Result, error)
}

// Extractor wraps a text extraction engine with summary logging.
type Extractor struct {
	next   extractor
	logger *slog.Logger
}

// NewExtractor creates a new logging Extractor.
func NewExtractor(next extractor, logger *slog.Logger) *Extractor {
	return &Extractor{next: next, logger: logger}
}

// Extract delegates to the wrapped engine and logs the outcome.
func (e *Extractor) Extract(rawText, languageHint string) (*extract.Result, error) {
	begin := time.Now()
	res, err := e.next.Extract(rawText, languageHint)
	if err != nil {
		e.logger.Error("extract failed", "error", err, "duration", time.Since(begin))
		return res, err
	}
	e.logger.Info("extract",
		"components", len(res.Components),
		"deadLetter", len(res.DeadLetter),
		"fallback", res.Fallback,
		"duration", time.Since(begin),
	)
	return res, nil
}

// harvester is the call contract of the asset harvesting engine.
type harvester interface {
	Harvest(ctx context.Context, sources []rulekit.FetchedDocument) (*harvest.Result, error)
}

// Harvester wraps an asset harvesting engine with summary logging.
type Harvester struct {
	next   harvester
	logger *slog.Logger
}

// NewHarvester creates a new logging Harvester.
func NewHarvester(next harvester, logger *slog.Logger) *Harvester {
	return &Harvester{next: next, logger: logger}
}

// Harvest delegates to the wrapped engine and logs the outcome.
func (h *Harvester) Harvest(ctx context.Context, sources []rulekit.FetchedDocument) (*harvest.Result, error) {
	begin := time.Now()
	res, err := h.next.Harvest(ctx, sources)
	if err != nil {
		h.logger.Error("harvest failed", "error", err, "duration", time.Since(begin))
		return res, err
	}
	h.logger.Info("harvest",
		"sources", len(sources),
		"images", len(res.Images),
		"clusters", len(res.Clusters),
		"skipped", len(res.Skipped),
		"duration", time.Since(begin),
	)
	return res, nil
}
