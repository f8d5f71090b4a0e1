package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
	"github.com/custodia-labs/ccdarank/internal/logger"
)

// Ensure PHIService implements the interface.
var _ driving.PHIService = (*PHIService)(nil)

// surrogateNamespace seeds the name-based UUIDs used as PHI surrogates.
var surrogateNamespace = uuid.MustParse("5b0f4a3e-8d55-4c1e-9a57-3f2c9e41d6b7")

// Surrogate returns the deterministic surrogate token for a PHI value.
func Surrogate(value string) string {
	return uuid.NewSHA1(surrogateNamespace, []byte(value)).String()
}

// PHIService extracts patient PHI and prepares it for tokenization.
type PHIService struct {
	corpus driven.Corpus
	parser driven.PHIParser
	store  driven.PHIStore
}

// NewPHIService creates a PHI service.
func NewPHIService(corpus driven.Corpus, parser driven.PHIParser, store driven.PHIStore) *PHIService {
	return &PHIService{corpus: corpus, parser: parser, store: store}
}

// Extract walks every corpus document, or only the one whose path or base
// name equals file, and persists one record per document.
func (s *PHIService) Extract(ctx context.Context, file string) (*domain.PHISummary, error) {
	if s.parser == nil || s.store == nil {
		return nil, errors.New("phi service not configured")
	}
	files, err := s.selectFiles(ctx, file)
	if err != nil {
		return nil, err
	}
	logger.Info("Extracting PHI from %d documents", len(files))

	summary := &domain.PHISummary{}
	records := make([]domain.PHIRecord, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := domain.PHIRecord{FileName: filepath.Base(f.Path)}
		data, err := readPHI(ctx, s.corpus, s.parser, f.Path)
		if err != nil {
			logger.Error("Error processing %s: %v", f.Path, err)
			rec.Error = err.Error()
			summary.Failed++
		} else {
			rec.Data = data
			summary.Processed++
		}
		records = append(records, rec)
	}

	if err := s.store.SavePHI(ctx, records); err != nil {
		return nil, fmt.Errorf("save phi: %w", err)
	}
	logger.Info("PHI extraction complete: %d processed, %d failed", summary.Processed, summary.Failed)
	return summary, nil
}

// Tokenize normalises every document's PHI into flat fields and pairs each
// distinct value with its surrogate. sample > 0 limits the run to a seeded
// sample of that many documents.
func (s *PHIService) Tokenize(ctx context.Context, sample int, seed int64) (*domain.PHISummary, error) {
	if s.parser == nil || s.store == nil {
		return nil, errors.New("phi service not configured")
	}
	files, err := s.corpus.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}
	if sample > 0 && sample < len(files) {
		files = sampleFiles(files, sample, seed)
		logger.Info("Sampled %d files for tokenization preparation", len(files))
	}

	summary := &domain.PHISummary{}
	records := make([]domain.TokenizationRecord, 0, len(files))
	unique := newTokenSet()
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := domain.TokenizationRecord{FileName: filepath.Base(f.Path)}
		data, err := readPHI(ctx, s.corpus, s.parser, f.Path)
		if err != nil {
			logger.Error("Error processing %s: %v", f.Path, err)
			rec.Error = err.Error()
			summary.Failed++
			records = append(records, rec)
			continue
		}
		rec.Data = PrepareTokenization(data)
		for _, t := range rec.Data.Tokens {
			unique.add(t.Value)
		}
		summary.Processed++
		records = append(records, rec)
	}

	tokens := unique.tokens()
	if err := s.store.SaveTokens(ctx, records, tokens); err != nil {
		return nil, fmt.Errorf("save tokens: %w", err)
	}
	summary.UniqueTokens = len(tokens)
	logger.Info("Tokenization preparation complete: %d processed, %d failed, %d unique tokens",
		summary.Processed, summary.Failed, summary.UniqueTokens)
	return summary, nil
}

func (s *PHIService) selectFiles(ctx context.Context, file string) ([]domain.CorpusFile, error) {
	files, err := s.corpus.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}
	if file == "" {
		return files, nil
	}
	for _, f := range files {
		if f.Path == file || filepath.Base(f.Path) == file {
			return []domain.CorpusFile{f}, nil
		}
	}
	return nil, fmt.Errorf("document %q: %w", file, domain.ErrNotFound)
}

// PrepareTokenization flattens extracted PHI into tokenization fields.
// Tokens hold every non-empty value once, in the order first seen.
func PrepareTokenization(phi *domain.PHIData) *domain.TokenizationData {
	out := &domain.TokenizationData{
		Names:        []domain.TokenizedName{},
		Addresses:    []domain.TokenizedAddress{},
		Contacts:     []string{},
		Dates:        []string{},
		Identifiers:  []string{},
		Demographics: map[string]string{},
	}
	tokens := newTokenSet()

	for _, n := range phi.Names {
		tn := domain.TokenizedName{
			Name:   n.Formatted,
			Prefix: strings.Join(n.Prefix, " "),
			Given:  strings.Join(n.Given, " "),
			Family: strings.Join(n.Family, " "),
			Suffix: strings.Join(n.Suffix, " "),
		}
		tokens.add(tn.Name, tn.Prefix, tn.Given, tn.Family, tn.Suffix)
		out.Names = append(out.Names, tn)
	}

	for _, a := range phi.Addresses {
		ta := domain.TokenizedAddress{
			Address: a.Formatted,
			Street:  strings.Join(a.StreetLines, " "),
			City:    a.City,
			State:   a.State,
			Zip:     a.PostalCode,
			Country: a.Country,
		}
		tokens.add(ta.Address, ta.Street, ta.City, ta.State, ta.Zip, ta.Country)
		out.Addresses = append(out.Addresses, ta)
	}

	for _, t := range phi.Telecoms {
		tokens.add(t.Value)
		out.Contacts = append(out.Contacts, t.Value)
	}

	if phi.BirthTime != nil {
		date := phi.BirthTime.Value
		if len(date) == 8 {
			date = domain.NormalizeHL7Date(date)
		}
		tokens.add(date)
		out.Dates = append(out.Dates, date)
		out.Demographics["birthdate"] = date
	}

	for _, id := range phi.IDs {
		tokens.add(id.Extension)
		out.Identifiers = append(out.Identifiers, id.Extension)
	}

	coded := []struct {
		field string
		value *domain.PHICodedValue
	}{
		{"gender", phi.Gender},
		{"marital_status", phi.MaritalStatus},
		{"race", phi.Race},
		{"ethnicity", phi.Ethnicity},
		{"language", phi.Language},
	}
	for _, c := range coded {
		if c.value == nil {
			continue
		}
		if c.value.Code != "" {
			out.Demographics[c.field+"_code"] = c.value.Code
			tokens.add(c.value.Code)
		}
		if c.value.DisplayName != "" {
			out.Demographics[c.field] = c.value.DisplayName
			tokens.add(c.value.DisplayName)
		}
	}

	out.Tokens = tokens.tokens()
	return out
}

// tokenSet keeps distinct non-empty values in insertion order.
type tokenSet struct {
	order []string
	seen  map[string]bool
}

func newTokenSet() *tokenSet {
	return &tokenSet{seen: make(map[string]bool)}
}

func (t *tokenSet) add(values ...string) {
	for _, v := range values {
		if v == "" || t.seen[v] {
			continue
		}
		t.seen[v] = true
		t.order = append(t.order, v)
	}
}

func (t *tokenSet) tokens() []domain.PHIToken {
	out := make([]domain.PHIToken, len(t.order))
	for i, v := range t.order {
		out[i] = domain.PHIToken{Value: v, Surrogate: Surrogate(v)}
	}
	return out
}

func sampleFiles(files []domain.CorpusFile, n int, seed int64) []domain.CorpusFile {
	paths := make([]string, len(files))
	byPath := make(map[string]domain.CorpusFile, len(files))
	for i, f := range files {
		paths[i] = f.Path
		byPath[f.Path] = f
	}
	picked := sampleStrings(paths, n, seed)
	out := make([]domain.CorpusFile, len(picked))
	for i, p := range picked {
		out[i] = byPath[p]
	}
	return out
}
