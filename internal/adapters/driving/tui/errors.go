package tui

import "errors"

// ErrMissingSelectionService is returned when no selection service is provided.
var ErrMissingSelectionService = errors.New("tui: selection service is required")
