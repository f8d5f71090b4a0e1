package domain

// CodeRef is a controlled-vocabulary code tagging a section, e.g. a LOINC code.
type CodeRef struct {
	// Code is the code value (e.g. "11506-3").
	Code string `json:"code"`

	// CodeSystem is the OID of the vocabulary the code belongs to.
	CodeSystem string `json:"code_system"`
}

// SectionObservation is one occurrence of a section in one document.
type SectionObservation struct {
	// Key names the section type across the corpus. Empty when the section
	// declares neither a template identifier nor a code.
	Key string

	// TemplateIDs are the template identifier roots found in the section,
	// in document order.
	TemplateIDs []string

	// Codes are the section's own code elements.
	Codes []CodeRef

	// Titles are the section's own title texts.
	Titles []string

	// EntryCount counts entry elements inside the section.
	EntryCount int

	// CodedElementCount counts elements carrying a code attribute.
	CodedElementCount int

	// NarrativeWordCount counts whitespace separated words in the
	// section's narrative text.
	NarrativeWordCount int
}

// SectionKey derives the section type key: the first template identifier,
// otherwise the first code, otherwise "".
func SectionKey(templateIDs []string, codes []CodeRef) string {
	for _, id := range templateIDs {
		if id != "" {
			return id
		}
	}
	for _, c := range codes {
		if c.Code != "" {
			return c.Code
		}
	}
	return ""
}

// PrimaryCode returns the first non-empty section code, or "".
func (o SectionObservation) PrimaryCode() string {
	for _, c := range o.Codes {
		if c.Code != "" {
			return c.Code
		}
	}
	return ""
}
