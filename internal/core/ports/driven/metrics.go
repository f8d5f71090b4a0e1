package driven

// RunMetrics counts scoring progress. Implementations must tolerate being
// called from a single goroutine only.
type RunMetrics interface {
	DocumentScored(failed bool)
	BatchWritten(documents int)
	BatchSkipped()

	// Flush exports the collected metrics. A no-op when no sink is configured.
	Flush() error
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) DocumentScored(bool) {}
func (NopMetrics) BatchWritten(int)    {}
func (NopMetrics) BatchSkipped()       {}
func (NopMetrics) Flush() error        { return nil }
