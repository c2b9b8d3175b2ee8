package rulekit

import (
	"encoding/json"
	"strconv"
)

// Confidence reason codes attached to retained components.
const (
	ReasonBreakdownSumMismatch = "breakdown_sum_mismatch"
	ReasonSupplyQuantity       = "supply_quantity"
	ReasonFallbackExtraction   = "fallback_extraction"
)

// Dead-letter reason codes for lines excluded during extraction.
const (
	DropExcludedInstruction = "excluded_instruction"
	DropExcludedCaption     = "excluded_caption"
	DropExcludedReward      = "excluded_reward"
	DropUnrecognizedLabel   = "unrecognized_label"
	DropNoQuantity          = "no_quantity"
)

// Quantity represents a component count: a concrete integer, the symbolic
// "supply" value (unlimited bank/reserve), or unknown.
type Quantity struct {
	N      int
	Supply bool
	Known  bool
}

// QuantityOf returns a concrete integer quantity.
func QuantityOf(n int) Quantity {
	return Quantity{N: n, Known: true}
}

// QuantitySupply returns the symbolic "supply" quantity.
func QuantitySupply() Quantity {
	return Quantity{Supply: true, Known: true}
}

// QuantityUnknown returns an unspecified quantity.
func QuantityUnknown() Quantity {
	return Quantity{}
}

// IsInt reports whether the quantity is a concrete integer.
func (q Quantity) IsInt() bool {
	return q.Known && !q.Supply
}

// String renders the quantity for display: the integer, "supply", or "?".
func (q Quantity) String() string {
	switch {
	case !q.Known:
		return "?"
	case q.Supply:
		return "supply"
	default:
		return strconv.Itoa(q.N)
	}
}

// MarshalJSON encodes the quantity as a number, the string "supply", or null.
func (q Quantity) MarshalJSON() ([]byte, error) {
	switch {
	case !q.Known:
		return []byte("null"), nil
	case q.Supply:
		return []byte(`"supply"`), nil
	default:
		return json.Marshal(q.N)
	}
}

// BreakdownPart is one labeled sub-quantity of a component's count.
type BreakdownPart struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Component represents one extracted rulebook component.
type Component struct {
	CanonicalName    string          `json:"canonicalName"`
	Count            Quantity        `json:"count"`
	Breakdown        []BreakdownPart `json:"breakdown,omitempty"`
	Note             string          `json:"note,omitempty"`
	ConfidenceReason string          `json:"confidenceReason,omitempty"`
}

// BreakdownSum returns the sum of breakdown part values.
func (c *Component) BreakdownSum() int {
	sum := 0
	for _, p := range c.Breakdown {
		sum += p.Value
	}
	return sum
}

// Validate returns an error if the component contains invalid fields.
// A breakdown-sum mismatch is not invalid: it is retained and tagged
// with ReasonBreakdownSumMismatch instead.
func (c *Component) Validate() error {
	if c.CanonicalName == "" {
		return Errorf(EINVALID, "component canonical name required")
	}
	for _, p := range c.Breakdown {
		if p.Value < 0 {
			return Errorf(EINVALID, "breakdown value for %q must be non-negative", p.Label)
		}
	}
	return nil
}

// DeadLetter records an input line that was intentionally excluded,
// retained with a reason code for audit rather than silently dropped.
type DeadLetter struct {
	Line       string `json:"line"`
	ReasonCode string `json:"reasonCode"`
}
