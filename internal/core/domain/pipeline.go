package domain

// CorpusFile is one document enumerated from the corpus.
type CorpusFile struct {
	// Path is the identifier of the document as enumerated. It is used
	// verbatim as the join key in every artifact.
	Path string

	// Size is the file size in bytes.
	Size int64
}

// ReformatSummary reports a reformatting run.
type ReformatSummary struct {
	Selected  int
	Written   int
	Failed    int
	Bytes     int64
	OutputDir string

	// Stopped is set when the memory limit or cancellation ended the run early.
	Stopped bool
}

// Comparison is the outcome of comparing one reformatted document with
// its original.
type Comparison struct {
	File  string
	Match bool

	// Diff holds the first differing lines when Match is false.
	Diff string

	Error string
}

// VerifyReport reports a content verification run.
type VerifyReport struct {
	Sampled     int
	Matches     int
	Differences int
	Errors      int
	Results     []Comparison
}

// PHISummary reports an extraction or tokenization run.
type PHISummary struct {
	Processed    int
	Failed       int
	UniqueTokens int
	OutputFile   string
}

// UploadSummary reports an upload run.
type UploadSummary struct {
	Processed int
	Uploaded  int
	Failed    int
	Skipped   int
	Keys      []string
}
