package mcp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 1000
)

// TopDocumentsInput is the input schema for the top_documents tool.
type TopDocumentsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"number of documents to return (default 10)"`
}

// TopDocumentsOutput is the output schema for the top_documents tool.
type TopDocumentsOutput struct {
	Documents []RankedDocument `json:"documents"`
	Count     int              `json:"count"`
}

// RankedDocument is one entry of the ranking.
type RankedDocument struct {
	Rank           int     `json:"rank"`
	File           string  `json:"file"`
	TotalScore     float64 `json:"total_score"`
	UniqueSections int     `json:"unique_sections"`
	FileSize       int64   `json:"file_size"`
}

// DocumentScoreInput is the input schema for the document_score tool.
type DocumentScoreInput struct {
	File string `json:"file" jsonschema:"document path as indexed, or its base name"`
}

// DocumentScoreOutput is the output schema for the document_score tool.
type DocumentScoreOutput struct {
	File           string         `json:"file"`
	TotalScore     float64        `json:"total_score"`
	UniqueSections int            `json:"unique_sections"`
	FileSize       int64          `json:"file_size"`
	Sections       []SectionScore `json:"sections"`
	Error          string         `json:"error,omitempty"`
}

// SectionScore is one section's contribution, highest first.
type SectionScore struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// SectionWeightInput is the input schema for the section_weight tool.
type SectionWeightInput struct {
	Key string `json:"key" jsonschema:"section key: a templateId root, a section code, or key_code for a note subsection"`
}

// SectionWeightOutput is the output schema for the section_weight tool.
type SectionWeightOutput struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	Weight        float64  `json:"weight"`
	Frequency     float64  `json:"frequency"`
	Comment       string   `json:"comment"`
	TemplateIDs   []string `json:"template_ids"`
	ParentSection string   `json:"parent_section,omitempty"`
	LOINCCode     string   `json:"loinc_code,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "top_documents",
		Description: "List the highest scoring C-CDA documents, best first",
	}, s.handleTopDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "document_score",
		Description: "Show the score breakdown of one C-CDA document",
	}, s.handleDocumentScore)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "section_weight",
		Description: "Show the configured weight of one C-CDA section",
	}, s.handleSectionWeight)
}

// handleTopDocuments handles the top_documents tool invocation.
func (s *Server) handleTopDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TopDocumentsInput,
) (*mcp.CallToolResult, TopDocumentsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}

	top, err := s.ports.Selection.TopN(ctx, limit)
	if err != nil {
		return nil, TopDocumentsOutput{}, err
	}

	output := TopDocumentsOutput{
		Documents: make([]RankedDocument, len(top)),
		Count:     len(top),
	}
	for i := range top {
		output.Documents[i] = RankedDocument{
			Rank:           i + 1,
			File:           top[i].FilePath,
			TotalScore:     top[i].TotalScore,
			UniqueSections: top[i].UniqueSections,
			FileSize:       top[i].FileSize,
		}
	}
	return nil, output, nil
}

// handleDocumentScore handles the document_score tool invocation.
func (s *Server) handleDocumentScore(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentScoreInput,
) (*mcp.CallToolResult, DocumentScoreOutput, error) {
	if input.File == "" {
		return nil, DocumentScoreOutput{}, fmt.Errorf("file: %w", domain.ErrInvalidInput)
	}

	score, err := s.findDocument(ctx, input.File)
	if err != nil {
		return nil, DocumentScoreOutput{}, err
	}

	output := DocumentScoreOutput{
		File:           score.FilePath,
		TotalScore:     score.TotalScore,
		UniqueSections: score.UniqueSections,
		FileSize:       score.FileSize,
		Sections:       make([]SectionScore, 0, len(score.SectionScores)),
		Error:          score.Error,
	}
	for key, v := range score.SectionScores {
		output.Sections = append(output.Sections, SectionScore{Key: key, Score: v})
	}
	sort.Slice(output.Sections, func(i, j int) bool {
		if output.Sections[i].Score != output.Sections[j].Score {
			return output.Sections[i].Score > output.Sections[j].Score
		}
		return output.Sections[i].Key < output.Sections[j].Key
	})
	return nil, output, nil
}

// findDocument looks file up by indexed path, then by base name.
func (s *Server) findDocument(ctx context.Context, file string) (domain.DocumentScore, error) {
	score, err := s.ports.Selection.Document(ctx, file)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return score, err
	}
	if filepath.Base(file) != file {
		return score, err
	}

	all, listErr := s.ports.Selection.TopN(ctx, 0)
	if listErr != nil {
		return domain.DocumentScore{}, listErr
	}
	for i := range all {
		if filepath.Base(all[i].FilePath) == file {
			return all[i], nil
		}
	}
	return domain.DocumentScore{}, err
}

// handleSectionWeight handles the section_weight tool invocation.
func (s *Server) handleSectionWeight(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SectionWeightInput,
) (*mcp.CallToolResult, SectionWeightOutput, error) {
	if s.ports.Weights == nil {
		return nil, SectionWeightOutput{}, errors.New("weight service not configured")
	}
	if input.Key == "" {
		return nil, SectionWeightOutput{}, fmt.Errorf("key: %w", domain.ErrInvalidInput)
	}

	section, err := s.ports.Weights.Section(ctx, input.Key)
	if err != nil {
		return nil, SectionWeightOutput{}, err
	}

	return nil, SectionWeightOutput{
		Key:           input.Key,
		Title:         section.Title,
		Weight:        section.Weight,
		Frequency:     section.Frequency,
		Comment:       section.Comment,
		TemplateIDs:   section.TemplateIDs,
		ParentSection: section.ParentSection,
		LOINCCode:     section.LOINCCode,
	}, nil
}
