// Package tui is an interactive terminal browser over the ranked index.
package tui

import (
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
)

// Ports aggregates the driving ports the browser reads from.
type Ports struct {
	// Selection lists ranked documents. Required.
	Selection driving.SelectionService

	// Weights titles sections in the breakdown. Optional.
	Weights driving.WeightService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Selection == nil {
		return ErrMissingSelectionService
	}
	return nil
}
