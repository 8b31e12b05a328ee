package generate

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"question-bank-service/internal/domain"
	"question-bank-service/internal/domain/model"
)

type rawQuestion struct {
	Type            string   `json:"type"`
	Stem            string   `json:"stem"`
	Options         []string `json:"options"`
	AnswerKey       string   `json:"answer_key"`
	Explanation     string   `json:"explanation"`
	Difficulty      string   `json:"difficulty"`
	BloomsLevel     string   `json:"blooms_level"`
	SourcePassageID string   `json:"source_passage_id"`
}

type rawReply struct {
	Questions []rawQuestion `json:"questions"`
}

// ParseReply decodes the model's JSON reply into a QuestionSet. Items that
// fail validation are dropped rather than failing the whole batch; an empty
// batch is domain.ErrEmptyResult.
func ParseReply(sessionID, modelName, reply string) (*model.QuestionSet, error) {
	payload := stripFences(reply)

	var raw rawReply
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("decode model reply: %w", err)
	}

	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	now := time.Now()

	questions := make([]model.Question, 0, len(raw.Questions))
	for _, rq := range raw.Questions {
		q, ok := buildQuestion(rq)
		if !ok {
			continue
		}
		q.ID = ulid.MustNew(ulid.Timestamp(now), entropy).String()
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, domain.ErrEmptyResult
	}

	return &model.QuestionSet{
		SessionID:   sessionID,
		Model:       modelName,
		Questions:   questions,
		GeneratedAt: now,
	}, nil
}

func buildQuestion(rq rawQuestion) (model.Question, bool) {
	qType := model.QuestionType(strings.ToLower(strings.TrimSpace(rq.Type)))
	stem := strings.TrimSpace(rq.Stem)
	key := strings.TrimSpace(rq.AnswerKey)
	if stem == "" || key == "" {
		return model.Question{}, false
	}

	switch qType {
	case model.QuestionTypeMCQ:
		if len(rq.Options) < 2 || !contains(rq.Options, key) {
			return model.Question{}, false
		}
	case model.QuestionTypeTF:
		low := strings.ToLower(key)
		if low != "true" && low != "false" {
			return model.Question{}, false
		}
		key = low
		rq.Options = nil
	case model.QuestionTypeFIB:
		if !strings.Contains(stem, "____") {
			return model.Question{}, false
		}
		rq.Options = nil
	default:
		return model.Question{}, false
	}

	return model.Question{
		Type:            qType,
		Stem:            stem,
		Options:         rq.Options,
		AnswerKey:       key,
		Explanation:     strings.TrimSpace(rq.Explanation),
		Difficulty:      strings.ToLower(strings.TrimSpace(rq.Difficulty)),
		BloomsLevel:     strings.ToLower(strings.TrimSpace(rq.BloomsLevel)),
		SourcePassageID: strings.TrimSpace(rq.SourcePassageID),
	}, true
}

func contains(opts []string, want string) bool {
	for _, o := range opts {
		if strings.TrimSpace(o) == want {
			return true
		}
	}
	return false
}

// stripFences tolerates models that wrap JSON in a markdown code fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
