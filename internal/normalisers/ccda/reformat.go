package ccda

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure Reformatter implements the interface.
var _ driven.Reformatter = (*Reformatter)(nil)

const (
	indentSpaces   = 2
	xmlDeclaration = `version="1.0" encoding="UTF-8"`

	// diffContext is the number of characters shown either side of the
	// first difference.
	diffContext = 60
)

// Reformatter pretty prints documents and compares rewrites with their
// originals.
type Reformatter struct{}

// NewReformatter creates a new reformatter.
func NewReformatter() *Reformatter {
	return &Reformatter{}
}

// Reformat writes r indented by two spaces, led by an XML declaration.
// Whitespace-only text between elements is replaced; all other content is
// kept as is.
func (f *Reformatter) Reformat(r io.Reader, w io.Writer) error {
	doc, err := readDocument(r)
	if err != nil {
		return err
	}

	ensureDeclaration(doc)
	doc.Indent(indentSpaces)

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Compare parses both documents, serialises them without indentation and
// compares the results with all spaces and line breaks removed.
func (f *Reformatter) Compare(original, reformatted io.Reader) (domain.Comparison, error) {
	left, err := canonical(original)
	if err != nil {
		return domain.Comparison{}, fmt.Errorf("original: %w", err)
	}
	right, err := canonical(reformatted)
	if err != nil {
		return domain.Comparison{}, fmt.Errorf("reformatted: %w", err)
	}

	if left == right {
		return domain.Comparison{Match: true}, nil
	}
	return domain.Comparison{Diff: firstDifference(left, right)}, nil
}

func readDocument(r io.Reader) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrParse, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", domain.ErrParse)
	}
	return doc, nil
}

// ensureDeclaration puts a UTF-8 XML declaration at the head of doc. A
// declaration naming another encoding is replaced, since the document is
// written back as UTF-8.
func ensureDeclaration(doc *etree.Document) {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			if declaresForeignEncoding(pi.Inst) {
				pi.Inst = xmlDeclaration
			}
			return
		}
	}
	doc.InsertChildAt(0, &etree.ProcInst{Target: "xml", Inst: xmlDeclaration})
}

func declaresForeignEncoding(inst string) bool {
	inst = strings.ToLower(inst)
	i := strings.Index(inst, "encoding=")
	if i < 0 {
		return false
	}
	enc := strings.Trim(inst[i+len("encoding="):], "\"' ")
	return !strings.HasPrefix(enc, "utf-8") && !strings.HasPrefix(enc, "utf8")
}

func canonical(r io.Reader) (string, error) {
	doc, err := readDocument(r)
	if err != nil {
		return "", err
	}
	ensureDeclaration(doc)
	doc.Indent(etree.NoIndent)

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("serialise: %w", err)
	}
	return stripWhitespace(buf.String()), nil
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
}

// firstDifference renders the region around the first differing byte as a
// small unified-style diff.
func firstDifference(left, right string) string {
	at := 0
	for at < len(left) && at < len(right) && left[at] == right[at] {
		at++
	}
	from := max(0, at-diffContext)

	return strings.Join([]string{
		"--- original",
		"+++ reformatted",
		fmt.Sprintf("@@ offset %d @@", at),
		"-" + window(left, from, at),
		"+" + window(right, from, at),
	}, "\n")
}

func window(s string, from, at int) string {
	if from > len(s) {
		return ""
	}
	return s[from:min(len(s), at+diffContext)]
}
