package adapter

import "context"

// Passage is one retrieved chunk of source material.
type Passage struct {
	ID        string  `json:"id"`
	ContentID string  `json:"content_id"`
	Chapter   string  `json:"chapter,omitempty"`
	Text      string  `json:"text"`
	Score     float64 `json:"score,omitempty"`
}

// RetrievalQuery narrows the search to the content a generation run covers.
type RetrievalQuery struct {
	ContentID          string
	ChapterName        string
	LearningObjectives []string
	Limit              int
}

// ContentRetriever is the port for the search backend that supplies source
// passages for question generation.
type ContentRetriever interface {
	Retrieve(ctx context.Context, q RetrievalQuery) ([]Passage, error)
}
