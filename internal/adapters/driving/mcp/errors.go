// Package mcp provides an MCP (Model Context Protocol) server adapter for
// ccdarank. It exposes the ranked document index, section weights and the
// section catalog to AI assistants, read-only.
package mcp

import "errors"

// ErrMissingSelectionService is returned when the selection service is not provided.
var ErrMissingSelectionService = errors.New("mcp: selection service is required")
