package search

import (
	"context"
	"fmt"

	"question-bank-service/internal/domain/ports/adapter"
)

var _ adapter.ContentRetriever = (*NoopRetriever)(nil)

// NoopRetriever serves fixed passages for local runs without a search cluster.
type NoopRetriever struct{}

func NewNoopRetriever() *NoopRetriever {
	return &NoopRetriever{}
}

func (n *NoopRetriever) Retrieve(ctx context.Context, query adapter.RetrievalQuery) ([]adapter.Passage, error) {
	return []adapter.Passage{
		{
			ID:        fmt.Sprintf("noop-%s-1", query.ContentID),
			ContentID: query.ContentID,
			Chapter:   query.ChapterName,
			Text:      "Fixture passage used when no search backend is configured.",
			Score:     1.0,
		},
	}, nil
}
