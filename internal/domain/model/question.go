package model

import "time"

type QuestionType string

const (
	QuestionTypeMCQ QuestionType = "mcq"
	QuestionTypeFIB QuestionType = "fib"
	QuestionTypeTF  QuestionType = "tf"
)

// Question is a single generated item. Options is only populated for MCQ;
// for TF the answer key is "true" or "false"; for FIB it is the expected fill.
type Question struct {
	ID              string       `json:"id"`
	Type            QuestionType `json:"type"`
	Stem            string       `json:"stem"`
	Options         []string     `json:"options,omitempty"`
	AnswerKey       string       `json:"answer_key"`
	Explanation     string       `json:"explanation,omitempty"`
	Difficulty      string       `json:"difficulty,omitempty"`
	BloomsLevel     string       `json:"blooms_level,omitempty"`
	SourcePassageID string       `json:"source_passage_id,omitempty"`
}

// QuestionSet is the completed payload of a generation job.
type QuestionSet struct {
	SessionID   string     `json:"session_id"`
	Model       string     `json:"model"`
	Questions   []Question `json:"questions"`
	GeneratedAt time.Time  `json:"generated_at"`
}

func (s *QuestionSet) Count() int { return len(s.Questions) }

// CountByType tallies questions per type, used for history records and for
// verifying the model honored the requested distribution.
func (s *QuestionSet) CountByType() map[string]int {
	out := make(map[string]int, 3)
	for _, q := range s.Questions {
		out[string(q.Type)]++
	}
	return out
}
