package domain

import "sort"

// MaxExampleFiles bounds the example files kept per catalog entry.
const MaxExampleFiles = 5

// SectionCatalogEntry aggregates every observation of one section key.
type SectionCatalogEntry struct {
	// Key is the section type key.
	Key string

	// OccurrenceCount is the number of documents containing the section.
	// A section repeated inside one document counts once.
	OccurrenceCount int

	// InstanceCount is the total number of section instances observed.
	// Averages are taken over instances.
	InstanceCount int

	// Frequency is OccurrenceCount / total documents scanned. Only valid
	// once the catalog is finalized.
	Frequency float64

	TemplateIDs []string
	Codes       []CodeRef
	Titles      []string

	TotalEntries        int
	TotalCodedElements  int
	TotalNarrativeWords int

	// ExampleFiles holds up to MaxExampleFiles documents containing the section.
	ExampleFiles []string

	templateSet map[string]struct{}
	codeSet     map[CodeRef]struct{}
	titleSet    map[string]struct{}
}

// AvgEntries returns the mean entry count per instance.
func (e *SectionCatalogEntry) AvgEntries() float64 {
	return average(e.TotalEntries, e.InstanceCount)
}

// AvgCodedElements returns the mean coded element count per instance.
func (e *SectionCatalogEntry) AvgCodedElements() float64 {
	return average(e.TotalCodedElements, e.InstanceCount)
}

// AvgNarrativeWords returns the mean narrative word count per instance.
func (e *SectionCatalogEntry) AvgNarrativeWords() float64 {
	return average(e.TotalNarrativeWords, e.InstanceCount)
}

// Metrics returns the averaged content metrics of the entry.
func (e *SectionCatalogEntry) Metrics() SectionMetrics {
	return SectionMetrics{
		AvgEntries:        e.AvgEntries(),
		AvgCodedElements:  e.AvgCodedElements(),
		AvgNarrativeWords: e.AvgNarrativeWords(),
	}
}

func average(total, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

func (e *SectionCatalogEntry) observe(obs SectionObservation) {
	if e.templateSet == nil {
		e.templateSet = make(map[string]struct{})
		e.codeSet = make(map[CodeRef]struct{})
		e.titleSet = make(map[string]struct{})
	}
	e.InstanceCount++
	e.TotalEntries += obs.EntryCount
	e.TotalCodedElements += obs.CodedElementCount
	e.TotalNarrativeWords += obs.NarrativeWordCount

	for _, id := range obs.TemplateIDs {
		if _, ok := e.templateSet[id]; !ok {
			e.templateSet[id] = struct{}{}
			e.TemplateIDs = append(e.TemplateIDs, id)
		}
	}
	for _, c := range obs.Codes {
		if _, ok := e.codeSet[c]; !ok {
			e.codeSet[c] = struct{}{}
			e.Codes = append(e.Codes, c)
		}
	}
	for _, title := range obs.Titles {
		if _, ok := e.titleSet[title]; !ok {
			e.titleSet[title] = struct{}{}
			e.Titles = append(e.Titles, title)
		}
	}
}

// SectionCatalog accumulates section observations over one corpus scan.
// One instance is built per run; it is not safe for concurrent use.
type SectionCatalog struct {
	entries   map[string]*SectionCatalogEntry
	total     int
	failed    int
	finalized bool
}

// NewSectionCatalog creates an empty catalog.
func NewSectionCatalog() *SectionCatalog {
	return &SectionCatalog{entries: make(map[string]*SectionCatalogEntry)}
}

// Observe records every section of one successfully parsed document.
// Sections without a key are skipped.
func (c *SectionCatalog) Observe(file string, sections []SectionObservation) {
	c.total++
	seen := make(map[string]bool, len(sections))
	for _, obs := range sections {
		if obs.Key == "" {
			continue
		}
		entry, ok := c.entries[obs.Key]
		if !ok {
			entry = &SectionCatalogEntry{Key: obs.Key}
			c.entries[obs.Key] = entry
		}
		entry.observe(obs)
		if !seen[obs.Key] {
			seen[obs.Key] = true
			entry.OccurrenceCount++
			if len(entry.ExampleFiles) < MaxExampleFiles {
				entry.ExampleFiles = append(entry.ExampleFiles, file)
			}
		}
	}
}

// RecordFailure counts a document that could not be parsed. Failed
// documents do not count toward TotalDocuments.
func (c *SectionCatalog) RecordFailure() {
	c.failed++
}

// Finalize computes document frequencies. It must only be called after the
// full corpus has been observed.
func (c *SectionCatalog) Finalize() {
	for _, e := range c.entries {
		if c.total > 0 {
			e.Frequency = float64(e.OccurrenceCount) / float64(c.total)
		} else {
			e.Frequency = 0
		}
	}
	c.finalized = true
}

// Finalized reports whether frequencies have been computed.
func (c *SectionCatalog) Finalized() bool { return c.finalized }

// TotalDocuments returns the number of successfully scanned documents.
func (c *SectionCatalog) TotalDocuments() int { return c.total }

// FailedDocuments returns the number of documents that failed to parse.
func (c *SectionCatalog) FailedDocuments() int { return c.failed }

// Len returns the number of distinct section keys.
func (c *SectionCatalog) Len() int { return len(c.entries) }

// Entry returns the entry for key.
func (c *SectionCatalog) Entry(key string) (*SectionCatalogEntry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Frequency returns the document frequency of key.
func (c *SectionCatalog) Frequency(key string) (float64, error) {
	if !c.finalized {
		return 0, ErrCatalogNotFinalized
	}
	e, ok := c.entries[key]
	if !ok {
		return 0, ErrNotFound
	}
	return e.Frequency, nil
}

// Entries returns all entries sorted by occurrence count descending, then key.
func (c *SectionCatalog) Entries() []*SectionCatalogEntry {
	out := make([]*SectionCatalogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OccurrenceCount != out[j].OccurrenceCount {
			return out[i].OccurrenceCount > out[j].OccurrenceCount
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// RestoreSectionCatalog rebuilds a finalized catalog from persisted entries.
// Stored frequencies are trusted as-is.
func RestoreSectionCatalog(totalDocuments int, entries []*SectionCatalogEntry) *SectionCatalog {
	c := NewSectionCatalog()
	c.total = totalDocuments
	for _, e := range entries {
		c.entries[e.Key] = e
	}
	c.finalized = true
	return c
}
