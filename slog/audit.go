// Package slog provides log/slog-backed implementations of the rulekit
// logging side channels: the verbose-mode audit sink and logging decorators
// for the extraction and harvesting engines.
package slog

import (
	"log/slog"

	"github.com/fwojciec/rulekit"
	"github.com/google/uuid"
)

// Ensure Sink implements rulekit.AuditSink at compile time.
var _ rulekit.AuditSink = (*Sink)(nil)

// Sink emits one structured log record per accept/drop decision. Each
// sink carries a run ID so decisions from concurrent runs can be
// separated in shared log output. Safe for concurrent use.
type Sink struct {
	logger *slog.Logger
	runID  string
}

// NewSink creates an audit sink with a fresh run ID.
func NewSink(logger *slog.Logger) *Sink {
	return &Sink{
		logger: logger,
		runID:  uuid.NewString(),
	}
}

// RunID returns the sink's run identifier.
func (s *Sink) RunID() string {
	return s.runID
}

// Record logs one audit record.
func (s *Sink) Record(rec rulekit.AuditRecord) {
	s.logger.Info("audit",
		"run", s.runID,
		"stage", rec.Stage,
		"decision", string(rec.Decision),
		"reason", rec.ReasonCode,
		"subject", rec.Subject,
	)
}
