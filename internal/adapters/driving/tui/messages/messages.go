// Package messages defines the Bubbletea messages exchanged by the browser
// views.
package messages

import (
	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// ViewType identifies the active view.
type ViewType int

const (
	// ViewRanking lists the ranked documents.
	ViewRanking ViewType = iota
	// ViewBreakdown shows the section scores of one document.
	ViewBreakdown
	// ViewHelp lists the key bindings.
	ViewHelp
)

// String returns the view name.
func (v ViewType) String() string {
	switch v {
	case ViewRanking:
		return "ranking"
	case ViewBreakdown:
		return "breakdown"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged switches the active view.
type ViewChanged struct {
	View ViewType
}

// RankingLoaded carries the top documents from the selection service.
type RankingLoaded struct {
	Documents []domain.DocumentScore
	Err       error
}

// WeightsLoaded carries the section weight table used to title sections.
type WeightsLoaded struct {
	Weights *domain.WeightConfig
	Err     error
}

// DocumentSelected opens the breakdown of a ranked document.
type DocumentSelected struct {
	Rank     int
	Document domain.DocumentScore
}

// ErrorOccurred reports a failure to the active view.
type ErrorOccurred struct {
	Err error
}

// Quit exits the browser.
type Quit struct{}
