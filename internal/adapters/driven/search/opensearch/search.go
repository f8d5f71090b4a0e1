// Package opensearch finds patients in an OpenSearch index.
package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
	"github.com/custodia-labs/ccdarank/internal/logger"
	"github.com/custodia-labs/ccdarank/internal/retry"
)

// Ensure Search implements the interface.
var _ driven.PatientSearch = (*Search)(nil)

// DefaultIndex is the patient index name.
const DefaultIndex = "patients"

// errBadRequest marks responses that retrying cannot fix.
var errBadRequest = errors.New("search request rejected")

// Search queries the patient index. Requests are throttled client side.
type Search struct {
	client  *opensearch.Client
	index   string
	limiter *rate.Limiter
	retry   retry.Config
}

// New connects to the configured cluster. No addresses means search is
// unavailable.
func New(cfg domain.SearchConfig) (*Search, error) {
	if len(cfg.Addresses) == 0 {
		return nil, domain.ErrSearchUnavailable
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for dev clusters
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,

		// Retries go through internal/retry.
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating opensearch client: %w", err)
	}

	index := cfg.Index
	if index == "" {
		index = DefaultIndex
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = max(1, int(cfg.RequestsPerSecond))
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.Logger = logger.L().Named("opensearch")
	retryCfg.Permanent = func(err error) bool { return errors.Is(err, errBadRequest) }

	return &Search{
		client:  client,
		index:   index,
		limiter: rate.NewLimiter(limit, burst),
		retry:   retryCfg,
	}, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64 `json:"_score"`
			Source struct {
				FirstName string `json:"firstName"`
				LastName  string `json:"lastName"`
				DOB       string `json:"dob"`
				PatientID string `json:"patientId"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// FindPatient runs an exact date of birth filter with fuzzy name scoring.
func (s *Search) FindPatient(ctx context.Context, d domain.Demographics) ([]domain.SearchHit, error) {
	body, err := json.Marshal(buildQuery(d))
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	return retry.DoWithResult(ctx, s.retry, func() ([]domain.SearchHit, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return s.search(ctx, body)
	})
}

func (s *Search) search(ctx context.Context, body []byte) ([]domain.SearchHit, error) {
	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		switch {
		case res.StatusCode == http.StatusTooManyRequests:
			return nil, fmt.Errorf("searching %s: %w", s.index, domain.ErrRateLimited)
		case res.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("index %s: %w: %w", s.index, domain.ErrNotFound, errBadRequest)
		case res.StatusCode < http.StatusInternalServerError:
			return nil, fmt.Errorf("%w: status %d: %s", errBadRequest, res.StatusCode, detail)
		default:
			return nil, fmt.Errorf("searching %s: status %d: %s", s.index, res.StatusCode, detail)
		}
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, domain.SearchHit{
			FirstName: h.Source.FirstName,
			LastName:  h.Source.LastName,
			DOB:       h.Source.DOB,
			PatientID: h.Source.PatientID,
			Score:     h.Score,
		})
	}
	logger.Debug("opensearch: %d hits in %s", len(hits), s.index)
	return hits, nil
}

// buildQuery requires the date of birth and at least one name clause.
func buildQuery(d domain.Demographics) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					map[string]any{"term": map[string]any{"dob": d.DOB}},
				},
				"should": []any{
					map[string]any{"match": map[string]any{
						"firstName": map[string]any{"query": d.FirstName, "fuzziness": "AUTO"},
					}},
					map[string]any{"match": map[string]any{
						"lastName": map[string]any{"query": d.LastName, "fuzziness": "AUTO"},
					}},
					map[string]any{"match_phrase": map[string]any{
						"lastName": map[string]any{"query": d.LastName, "slop": 1},
					}},
				},
				"minimum_should_match": 1,
			},
		},
	}
}
