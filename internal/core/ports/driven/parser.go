package driven

import (
	"io"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// SectionParser extracts section observations from a C-CDA document.
type SectionParser interface {
	// ParseSections returns one observation per section element, nested
	// sections included, in document order. Malformed XML returns an error
	// wrapping domain.ErrParse.
	ParseSections(r io.Reader) ([]domain.SectionObservation, error)
}

// PHIParser extracts patient PHI from a C-CDA document header.
type PHIParser interface {
	// ParsePHI walks recordTarget/patientRole. Returns an error wrapping
	// domain.ErrNoPatient when the document has no patient role.
	ParsePHI(r io.Reader) (*domain.PHIData, error)
}

// Reformatter rewrites documents and checks the rewrite is lossless.
type Reformatter interface {
	// Reformat writes an indented serialisation of r to w.
	Reformat(r io.Reader, w io.Writer) error

	// Compare reports whether two documents carry the same content once
	// insignificant whitespace is removed.
	Compare(original, reformatted io.Reader) (domain.Comparison, error)
}
