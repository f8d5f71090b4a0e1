package ccda

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure SectionParser implements the interface.
var _ driven.SectionParser = (*SectionParser)(nil)

// SectionParser extracts section observations with a single token pass.
type SectionParser struct{}

// NewSectionParser creates a new section parser.
func NewSectionParser() *SectionParser {
	return &SectionParser{}
}

// openSection tracks a section element whose end tag has not been seen.
type openSection struct {
	obs   *domain.SectionObservation
	depth int

	// title collects the character data of a direct title child.
	title      strings.Builder
	titleDepth int
}

// walkState is the parser state shared across tokens.
type walkState struct {
	depth     int
	textDepth int // depth of the outermost open narrative text element, 0 when outside
	open      []*openSection
	done      []*domain.SectionObservation
}

// ParseSections returns one observation per section, nested sections
// included, in document order. Each observation counts everything below
// its section element, so a nested section also contributes to its
// parents.
func (p *SectionParser) ParseSections(r io.Reader) ([]domain.SectionObservation, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	st := &walkState{}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			st.start(t)
		case xml.EndElement:
			st.end(t)
		case xml.CharData:
			st.chars(t)
		}
	}

	if len(st.open) > 0 {
		return nil, fmt.Errorf("%w: unclosed section element", domain.ErrParse)
	}

	result := make([]domain.SectionObservation, len(st.done))
	for i, obs := range st.done {
		obs.Key = domain.SectionKey(obs.TemplateIDs, obs.Codes)
		result[i] = *obs
	}
	return result, nil
}

func (st *walkState) start(t xml.StartElement) {
	st.depth++
	name := t.Name.Local

	// Attributes first: every open section sees its descendants.
	if hasAttr(t, "code") {
		for _, s := range st.open {
			s.obs.CodedElementCount++
		}
	}
	switch name {
	case "templateId":
		if root := attr(t, "root"); root != "" {
			for _, s := range st.open {
				s.obs.TemplateIDs = append(s.obs.TemplateIDs, root)
			}
		}
	case "entry":
		for _, s := range st.open {
			s.obs.EntryCount++
		}
	case "text":
		if st.textDepth == 0 {
			st.textDepth = st.depth
		}
	}

	// Direct children of the innermost section.
	if n := len(st.open); n > 0 {
		inner := st.open[n-1]
		if st.depth == inner.depth+1 {
			switch name {
			case "code":
				if code := attr(t, "code"); code != "" {
					inner.obs.Codes = append(inner.obs.Codes, domain.CodeRef{
						Code:       code,
						CodeSystem: attr(t, "codeSystem"),
					})
				}
			case "title":
				inner.titleDepth = st.depth
				inner.title.Reset()
			}
		}
	}

	if name == "section" {
		obs := &domain.SectionObservation{}
		st.done = append(st.done, obs)
		st.open = append(st.open, &openSection{obs: obs, depth: st.depth})
	}
}

func (st *walkState) end(t xml.EndElement) {
	if n := len(st.open); n > 0 {
		inner := st.open[n-1]
		switch {
		case t.Name.Local == "section" && st.depth == inner.depth:
			st.open = st.open[:n-1]
		case inner.titleDepth == st.depth:
			if title := strings.TrimSpace(inner.title.String()); title != "" {
				inner.obs.Titles = append(inner.obs.Titles, title)
			}
			inner.titleDepth = 0
		}
	}
	if st.textDepth == st.depth {
		st.textDepth = 0
	}
	st.depth--
}

func (st *walkState) chars(data xml.CharData) {
	if len(st.open) == 0 {
		return
	}
	inner := st.open[len(st.open)-1]
	if inner.titleDepth != 0 && inner.titleDepth == st.depth {
		inner.title.Write(data)
	}
	if st.textDepth == 0 {
		return
	}
	words := len(strings.Fields(string(data)))
	if words == 0 {
		return
	}
	for _, s := range st.open {
		s.obs.NarrativeWordCount += words
	}
}

// attr returns the value of the unqualified attribute name.
func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}

func hasAttr(t xml.StartElement, name string) bool {
	for _, a := range t.Attr {
		if a.Name.Local == name && a.Name.Space == "" {
			return true
		}
	}
	return false
}
