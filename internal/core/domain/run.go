package domain

import "time"

// RunTrigger names what started a scoring run.
type RunTrigger string

const (
	// RunTriggerCLI is a run started by the score command.
	RunTriggerCLI RunTrigger = "cli"

	// RunTriggerWatch is a run started by a corpus change.
	RunTriggerWatch RunTrigger = "watch"

	// RunTriggerMCP is a run requested over MCP.
	RunTriggerMCP RunTrigger = "mcp"
)

// ScoreOptions are the knobs of one scoring run.
type ScoreOptions struct {
	// BatchSize is the number of consecutive corpus files per batch.
	BatchSize int

	// MemoryLimitMB stops new batches once heap usage exceeds it.
	// Zero disables the check.
	MemoryLimitMB int

	// Trigger is recorded in the run ledger.
	Trigger RunTrigger
}

// RunResult records the outcome of one scoring run.
type RunResult struct {
	// ID is a unique run identifier.
	ID string

	Trigger   RunTrigger
	StartedAt time.Time
	EndedAt   time.Time

	// CorpusFiles is the number of files enumerated.
	CorpusFiles int

	// Scored counts documents scored in this run, Failed those with errors.
	Scored int
	Failed int

	BatchesWritten int
	BatchesSkipped int

	// Stopped is set when the run ceased early (cancellation or memory
	// limit). The merged index is still written for completed batches.
	Stopped bool

	// Error holds the fatal error message, if any.
	Error string
}

// Success reports whether the run finished without a fatal error.
func (r RunResult) Success() bool { return r.Error == "" }

// Duration returns how long the run took.
func (r RunResult) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// ScoreSummary is what a scoring run reports to the operator.
type ScoreSummary struct {
	Run RunResult

	// TotalDocuments is the size of the merged index.
	TotalDocuments int

	// Errors is the number of documents in the index recorded with an error.
	Errors int

	// Top holds the best ranked documents.
	Top []DocumentScore
}
