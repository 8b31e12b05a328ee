// Package search holds adapters for the content retrieval port.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"question-bank-service/internal/domain/ports/adapter"
	"question-bank-service/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ContentRetriever = (*OpenSearchRetriever)(nil)

// OpenSearchRetriever fetches source passages from an OpenSearch index over
// the plain _search REST API. No client SDK: the query surface we need is one
// endpoint, so a raw http.Client keeps the dependency out.
type OpenSearchRetriever struct {
	host     string // e.g. https://search.internal:9200
	index    string
	username string
	password string
	maxHits  int
	client   *http.Client
}

func NewOpenSearchRetriever(host, index, username, password string, maxHits int, timeout time.Duration) (*OpenSearchRetriever, error) {
	if host == "" {
		return nil, errors.New("opensearch host empty")
	}
	if index == "" {
		return nil, errors.New("opensearch index empty")
	}
	if maxHits <= 0 {
		maxHits = 20
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenSearchRetriever{
		host:     strings.TrimRight(host, "/"),
		index:    index,
		username: username,
		password: password,
		maxHits:  maxHits,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type searchHit struct {
	ID     string  `json:"_id"`
	Score  float64 `json:"_score"`
	Source struct {
		ContentID string `json:"contentId"`
		Chapter   string `json:"chapter_name"`
		Text      string `json:"text"`
	} `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

func (r *OpenSearchRetriever) Retrieve(ctx context.Context, query adapter.RetrievalQuery) ([]adapter.Passage, error) {
	passages, err := r.search(ctx, query)
	if err != nil {
		metrics.IncRetrieval("error")
		return nil, err
	}
	if len(passages) == 0 {
		metrics.IncRetrieval("empty")
		return nil, nil
	}
	metrics.IncRetrieval("ok")
	metrics.ObserveRetrievalPassages(len(passages))
	return passages, nil
}

func (r *OpenSearchRetriever) search(ctx context.Context, query adapter.RetrievalQuery) ([]adapter.Passage, error) {
	limit := query.Limit
	if limit <= 0 || limit > r.maxHits {
		limit = r.maxHits
	}

	body := buildQuery(query, limit)
	b, _ := json.Marshal(body)

	url := fmt.Sprintf("%s/%s/_search", r.host, r.index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.username != "" {
		req.SetBasicAuth(r.username, r.password)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("opensearch http %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	out := make([]adapter.Passage, 0, len(payload.Hits.Hits))
	for _, h := range payload.Hits.Hits {
		if h.Source.Text == "" {
			continue
		}
		out = append(out, adapter.Passage{
			ID:        h.ID,
			ContentID: h.Source.ContentID,
			Chapter:   h.Source.Chapter,
			Text:      h.Source.Text,
			Score:     h.Score,
		})
	}
	return out, nil
}

// buildQuery filters on the content id and ranks passages by how well they
// match the chapter and learning objectives.
func buildQuery(query adapter.RetrievalQuery, limit int) map[string]any {
	must := []map[string]any{
		{"term": map[string]any{"contentId": query.ContentID}},
	}
	var should []map[string]any
	if query.ChapterName != "" {
		should = append(should, map[string]any{
			"match": map[string]any{"chapter_name": query.ChapterName},
		})
	}
	for _, obj := range query.LearningObjectives {
		should = append(should, map[string]any{
			"match": map[string]any{"text": obj},
		})
	}

	boolQuery := map[string]any{"must": must}
	if len(should) > 0 {
		boolQuery["should"] = should
	}
	return map[string]any{
		"size":  limit,
		"query": map[string]any{"bool": boolQuery},
	}
}
