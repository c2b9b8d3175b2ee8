// Package mock provides function-field mock implementations of rulekit
// interfaces for testing.
package mock

import (
	"github.com/fwojciec/rulekit"
)

var _ rulekit.Describer = (*Describer)(nil)

// Describer is a mock implementation of rulekit.Describer.
type Describer struct {
	DescribeFn func(doc *rulekit.FetchedDocument, profile *rulekit.GameProfile) ([]rulekit.ImageDescriptor, error)
}

func (d *Describer) Describe(doc *rulekit.FetchedDocument, profile *rulekit.GameProfile) ([]rulekit.ImageDescriptor, error) {
	return d.DescribeFn(doc, profile)
}
