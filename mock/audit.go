package mock

import (
	"sync"

	"github.com/fwojciec/rulekit"
)

var _ rulekit.AuditSink = (*AuditSink)(nil)

// AuditSink is a mock implementation of rulekit.AuditSink that collects
// records for assertions. Safe for concurrent use, matching the contract
// harvesting relies on.
type AuditSink struct {
	mu      sync.Mutex
	records []rulekit.AuditRecord
}

func (s *AuditSink) Record(rec rulekit.AuditRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

// Records returns a copy of all collected records.
func (s *AuditSink) Records() []rulekit.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]rulekit.AuditRecord, len(s.records))
	copy(out, s.records)
	return out
}

// ByReason returns collected records with the given reason code.
func (s *AuditSink) ByReason(reason string) []rulekit.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []rulekit.AuditRecord
	for _, r := range s.records {
		if r.ReasonCode == reason {
			out = append(out, r)
		}
	}
	return out
}
