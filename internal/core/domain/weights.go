package domain

import "strconv"

// WeightConfigVersion is the schema version written to weight files.
const WeightConfigVersion = "1.0"

// DefaultSectionWeight applies to sections missing from the weight table.
const DefaultSectionWeight = 0.2

// SectionMetrics are the averaged content metrics of a section type.
type SectionMetrics struct {
	AvgEntries        float64 `json:"avg_entries"`
	AvgCodedElements  float64 `json:"avg_coded_elements"`
	AvgNarrativeWords float64 `json:"avg_text_length"`
}

// SectionWeightConfig is the importance weight of one section type.
type SectionWeightConfig struct {
	// Key is the section key, or "{parent}.{code}" for derived subsections.
	Key string `json:"-"`

	Title     string         `json:"title"`
	Weight    float64        `json:"weight"`
	Frequency float64        `json:"frequency"`
	Metrics   SectionMetrics `json:"metrics"`

	// Comment explains the weight in frequency, density and narrative tiers.
	Comment string `json:"comment"`

	TemplateIDs []string  `json:"template_ids"`
	Codes       []CodeRef `json:"codes"`

	// ParentSection and LOINCCode are set only for derived subsections.
	ParentSection string `json:"parent_section,omitempty"`
	LOINCCode     string `json:"loinc_code,omitempty"`
}

// Derived reports whether the config describes a derived subsection.
func (s *SectionWeightConfig) Derived() bool {
	return s.ParentSection != ""
}

// WeightConfig is the full weight table, keeping insertion order.
type WeightConfig struct {
	Version     string
	Description string

	keys     []string
	sections map[string]*SectionWeightConfig
}

// NewWeightConfig creates an empty weight table.
func NewWeightConfig(description string) *WeightConfig {
	return &WeightConfig{
		Version:     WeightConfigVersion,
		Description: description,
		sections:    make(map[string]*SectionWeightConfig),
	}
}

// Add inserts or replaces a section config. Replacing keeps the original
// position.
func (w *WeightConfig) Add(s *SectionWeightConfig) {
	if _, ok := w.sections[s.Key]; !ok {
		w.keys = append(w.keys, s.Key)
	}
	w.sections[s.Key] = s
}

// Section returns the config for key.
func (w *WeightConfig) Section(key string) (*SectionWeightConfig, bool) {
	if w == nil {
		return nil, false
	}
	s, ok := w.sections[key]
	return s, ok
}

// Keys returns section keys in insertion order.
func (w *WeightConfig) Keys() []string {
	if w == nil {
		return nil
	}
	out := make([]string, len(w.keys))
	copy(out, w.keys)
	return out
}

// Len returns the number of configured sections.
func (w *WeightConfig) Len() int {
	if w == nil {
		return 0
	}
	return len(w.keys)
}

// Lookup returns the weight configured for key, or def. Derived subsection
// entries are only reached by their own "{parent}.{code}" key.
func (w *WeightConfig) Lookup(key string, def float64) float64 {
	if s, ok := w.Section(key); ok {
		return s.Weight
	}
	return def
}

// Round rounds the exact decimal value of x to the given number of places.
// Exact binary ties round half to even.
func Round(x float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return r
}
