package domain

import "sort"

// Section scoring coefficients.
const (
	EntryPoints          = 0.3
	CodedElementPoints   = 0.2
	MixedContentBonus    = 1.2
	mixedContentWords    = 300
	mixedContentCodes    = 15
	narrativeRichWords   = 800
	narrativeMediumWords = 300
	narrativeLightWords  = 50
)

// DocumentScore is the information-richness score of one document.
type DocumentScore struct {
	// FilePath identifies the source document. It is the join key used by
	// every downstream consumer and is never rewritten.
	FilePath string `json:"-"`

	FileSize       int64              `json:"file_size"`
	SectionScores  map[string]float64 `json:"section_scores"`
	TotalScore     float64            `json:"total_score"`
	UniqueSections int                `json:"unique_sections"`

	// Error is set when the document could not be read or parsed. Such
	// documents score zero.
	Error string `json:"error,omitempty"`
}

// Failed reports whether scoring the document failed.
func (d DocumentScore) Failed() bool { return d.Error != "" }

// NarrativeScore returns the text component of a section score.
func NarrativeScore(words int) float64 {
	switch {
	case words > narrativeRichWords:
		return 0.5
	case words > narrativeMediumWords:
		return 0.3
	case words > narrativeLightWords:
		return 0.1
	default:
		return float64(words) * 0.001
	}
}

// SectionScore scores one section occurrence with the given weight,
// rounded to three decimals.
func SectionScore(obs SectionObservation, weight float64) float64 {
	raw := float64(obs.EntryCount)*EntryPoints +
		float64(obs.CodedElementCount)*CodedElementPoints +
		NarrativeScore(obs.NarrativeWordCount)
	score := raw * weight
	if obs.NarrativeWordCount > mixedContentWords && obs.CodedElementCount > mixedContentCodes {
		score *= MixedContentBonus
	}
	return Round(score, 3)
}

// ScoreDocument scores every keyed section of a document. A key seen twice
// keeps the later occurrence's score.
func ScoreDocument(path string, size int64, sections []SectionObservation, weights *WeightConfig) DocumentScore {
	doc := DocumentScore{
		FilePath:      path,
		FileSize:      size,
		SectionScores: make(map[string]float64),
	}
	for _, obs := range sections {
		if obs.Key == "" {
			continue
		}
		w := weights.Lookup(obs.Key, DefaultSectionWeight)
		doc.SectionScores[obs.Key] = SectionScore(obs, w)
	}
	doc.recompute()
	return doc
}

// FailedScore returns the zero score recorded for an unreadable document.
func FailedScore(path string, size int64, err error) DocumentScore {
	return DocumentScore{
		FilePath:      path,
		FileSize:      size,
		SectionScores: make(map[string]float64),
		Error:         err.Error(),
	}
}

func (d *DocumentScore) recompute() {
	keys := make([]string, 0, len(d.SectionScores))
	for k := range d.SectionScores {
		keys = append(keys, k)
	}
	// Sum in key order.
	sort.Strings(keys)
	total := 0.0
	for _, k := range keys {
		total += d.SectionScores[k]
	}
	d.TotalScore = total
	d.UniqueSections = len(d.SectionScores)
}

// CheckpointBatch is a durable, append-only unit of scoring progress.
// Once written a batch is never modified.
type CheckpointBatch struct {
	// ID is assigned as highest existing ID + 1.
	ID int

	// Scores are the documents newly scored in this batch, in scan order.
	Scores []DocumentScore
}

// Files returns the file paths covered by the batch.
func (b CheckpointBatch) Files() []string {
	out := make([]string, len(b.Scores))
	for i, s := range b.Scores {
		out[i] = s.FilePath
	}
	return out
}

// ScoreIndex is the merged view of every checkpoint batch. Put is
// last-write-wins per file path; encounter order is the first Put.
type ScoreIndex struct {
	order  []string
	scores map[string]DocumentScore
}

// NewScoreIndex creates an empty index.
func NewScoreIndex() *ScoreIndex {
	return &ScoreIndex{scores: make(map[string]DocumentScore)}
}

// Put adds or replaces a document score.
func (x *ScoreIndex) Put(s DocumentScore) {
	if _, ok := x.scores[s.FilePath]; !ok {
		x.order = append(x.order, s.FilePath)
	}
	x.scores[s.FilePath] = s
}

// Merge puts every score of a batch.
func (x *ScoreIndex) Merge(b CheckpointBatch) {
	for _, s := range b.Scores {
		x.Put(s)
	}
}

// Get returns the score for a file path.
func (x *ScoreIndex) Get(path string) (DocumentScore, bool) {
	s, ok := x.scores[path]
	return s, ok
}

// Has reports whether a file path has been scored.
func (x *ScoreIndex) Has(path string) bool {
	_, ok := x.scores[path]
	return ok
}

// Len returns the number of scored documents.
func (x *ScoreIndex) Len() int { return len(x.order) }

// Failed returns the number of documents recorded with an error.
func (x *ScoreIndex) Failed() int {
	n := 0
	for _, s := range x.scores {
		if s.Failed() {
			n++
		}
	}
	return n
}

// Encountered returns scores in encounter order.
func (x *ScoreIndex) Encountered() []DocumentScore {
	out := make([]DocumentScore, len(x.order))
	for i, p := range x.order {
		out[i] = x.scores[p]
	}
	return out
}

// Ranked returns scores sorted by total score descending. The sort is
// stable: ties keep encounter order.
func (x *ScoreIndex) Ranked() []DocumentScore {
	out := x.Encountered()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalScore > out[j].TotalScore
	})
	return out
}

// TopN returns the n highest scoring documents. n <= 0 or n beyond the
// index size returns everything.
func (x *ScoreIndex) TopN(n int) []DocumentScore {
	ranked := x.Ranked()
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}

// TopFiles returns the file paths of TopN(n).
func (x *ScoreIndex) TopFiles(n int) []string {
	top := x.TopN(n)
	out := make([]string, len(top))
	for i, s := range top {
		out[i] = s.FilePath
	}
	return out
}
