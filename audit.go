package rulekit

// Decision states whether an input was kept or dropped.
type Decision string

// Audit decisions.
const (
	DecisionAccept Decision = "accept"
	DecisionDrop   Decision = "drop"
	DecisionMerge  Decision = "merge"
)

// AuditRecord is one structured accept/drop record emitted in verbose mode,
// one per component line or image candidate. It is a logging side channel,
// not part of any return value.
type AuditRecord struct {
	// Stage names the pipeline step that made the decision
	// (e.g., "classify", "filter", "cluster").
	Stage string

	Decision Decision

	// ReasonCode explains the decision (dead-letter and confidence codes).
	ReasonCode string

	// Subject is the line or image URL the decision applies to.
	Subject string
}

// AuditSink receives audit records. Engines treat a nil sink as disabled.
// Implementations must be safe for concurrent use: harvesting emits records
// from multiple workers.
type AuditSink interface {
	Record(rec AuditRecord)
}
