package mcp

import (
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Selection answers ranking queries over the consolidated index.
	Selection driving.SelectionService

	// Weights serves the section weight table.
	Weights driving.WeightService

	// Catalog serves the persisted section catalog.
	Catalog driving.CatalogService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Selection == nil {
		return ErrMissingSelectionService
	}
	// Weights and Catalog are optional; their tools and resources report
	// unavailability instead.
	return nil
}
