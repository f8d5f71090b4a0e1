package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for ccdarank resources.
	uriScheme = "ccdarank://"

	weightsURI = uriScheme + "weights"
	catalogURI = uriScheme + "catalog"

	jsonMIME = "application/json"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         weightsURI,
		Name:        "weights",
		Description: "Section weight table used to score documents",
		MIMEType:    jsonMIME,
	}, s.handleWeightsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         catalogURI,
		Name:        "catalog",
		Description: "Corpus-wide C-CDA section catalog, most frequent first",
		MIMEType:    jsonMIME,
	}, s.handleCatalogResource)
}

type weightsDocument struct {
	Version     string                                                      `json:"version"`
	Description string                                                      `json:"description"`
	Sections    *orderedmap.OrderedMap[string, *domain.SectionWeightConfig] `json:"sections"`
}

// handleWeightsResource returns the weight table with sections in table order.
func (s *Server) handleWeightsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Weights == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	cfg, err := s.ports.Weights.Weights(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading weights: %w", err)
	}

	doc := weightsDocument{
		Version:     cfg.Version,
		Description: cfg.Description,
		Sections:    orderedmap.New[string, *domain.SectionWeightConfig](),
	}
	for _, key := range cfg.Keys() {
		section, _ := cfg.Section(key)
		doc.Sections.Set(key, section)
	}
	return jsonResult(req.Params.URI, doc)
}

type catalogDocument struct {
	TotalDocuments  int            `json:"total_documents"`
	FailedDocuments int            `json:"failed_documents"`
	Sections        []catalogEntry `json:"sections"`
}

type catalogEntry struct {
	Key         string   `json:"key"`
	Count       int      `json:"count"`
	Instances   int      `json:"instances"`
	Frequency   float64  `json:"frequency"`
	Titles      []string `json:"titles"`
	TemplateIDs []string `json:"template_ids"`

	AvgEntries       float64 `json:"avg_entries"`
	AvgCodedElements float64 `json:"avg_coded_elements"`
	AvgTextLength    float64 `json:"avg_text_length"`
}

// handleCatalogResource returns the persisted section catalog.
func (s *Server) handleCatalogResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	catalog, err := s.ports.Catalog.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	entries := catalog.Entries()
	doc := catalogDocument{
		TotalDocuments:  catalog.TotalDocuments(),
		FailedDocuments: catalog.FailedDocuments(),
		Sections:        make([]catalogEntry, len(entries)),
	}
	for i, e := range entries {
		doc.Sections[i] = catalogEntry{
			Key:              e.Key,
			Count:            e.OccurrenceCount,
			Instances:        e.InstanceCount,
			Frequency:        e.Frequency,
			Titles:           e.Titles,
			TemplateIDs:      e.TemplateIDs,
			AvgEntries:       e.AvgEntries(),
			AvgCodedElements: e.AvgCodedElements(),
			AvgTextLength:    e.AvgNarrativeWords(),
		}
	}
	return jsonResult(req.Params.URI, doc)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: jsonMIME,
			Text:     string(data),
		}},
	}, nil
}
