package model

import (
	"strings"
	"time"

	"question-bank-service/internal/domain"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// canTransition encodes the monotonic lifecycle:
// pending -> in_progress -> {completed, failed}. A terminal state never reverts.
func (s JobStatus) canTransition(to JobStatus) bool {
	switch s {
	case JobStatusPending:
		return to == JobStatusInProgress || to == JobStatusCompleted || to == JobStatusFailed
	case JobStatusInProgress:
		return to == JobStatusCompleted || to == JobStatusFailed
	default:
		return false
	}
}

// GenerationParams is the caller-supplied configuration for one generation run.
// Distribution maps are keyed by question type / difficulty / Bloom's level and
// their values are absolute question counts.
type GenerationParams struct {
	ContentID              string         `json:"content_id"`
	ChapterName            string         `json:"chapter_name"`
	LearningObjectives     []string       `json:"learning_objectives,omitempty"`
	Model                  string         `json:"model,omitempty"`
	TotalQuestions         int            `json:"total_questions"`
	TypeDistribution       map[string]int `json:"question_type_distribution"`
	DifficultyDistribution map[string]int `json:"difficulty_distribution,omitempty"`
	BloomsDistribution     map[string]int `json:"blooms_taxonomy_distribution,omitempty"`
}

var (
	knownTypes        = map[string]bool{"mcq": true, "fib": true, "tf": true}
	knownDifficulties = map[string]bool{"easy": true, "medium": true, "hard": true}
	knownBloomsLevels = map[string]bool{
		"remember": true, "understand": true, "apply": true,
		"analyze": true, "evaluate": true, "create": true,
	}
)

// Validate checks presence and consistency of the required parameters.
func (p *GenerationParams) Validate() error {
	if strings.TrimSpace(p.ContentID) == "" {
		return domain.ErrInvalidArgument
	}
	if p.TotalQuestions <= 0 {
		return domain.ErrInvalidArgument
	}
	if len(p.TypeDistribution) == 0 {
		return domain.ErrInvalidArgument
	}
	if err := checkDistribution(p.TypeDistribution, knownTypes, p.TotalQuestions); err != nil {
		return err
	}
	if len(p.DifficultyDistribution) > 0 {
		if err := checkDistribution(p.DifficultyDistribution, knownDifficulties, p.TotalQuestions); err != nil {
			return err
		}
	}
	if len(p.BloomsDistribution) > 0 {
		if err := checkDistribution(p.BloomsDistribution, knownBloomsLevels, p.TotalQuestions); err != nil {
			return err
		}
	}
	return nil
}

func checkDistribution(dist map[string]int, known map[string]bool, total int) error {
	sum := 0
	for k, n := range dist {
		if !known[strings.ToLower(strings.TrimSpace(k))] {
			return domain.ErrInvalidArgument
		}
		if n < 0 {
			return domain.ErrInvalidArgument
		}
		sum += n
	}
	if sum != total {
		return domain.ErrInvalidArgument
	}
	return nil
}

// GenerationJob is one tracked generation request. Exactly one job exists per
// session id; the session id is assigned at creation and never changes.
type GenerationJob struct {
	SessionID   string           `json:"session_id"`
	SourceID    string           `json:"source_id"`
	Status      JobStatus        `json:"status"`
	Params      GenerationParams `json:"params"`
	Result      *QuestionSet     `json:"result,omitempty"`
	LastError   string           `json:"error,omitempty"`
	Retries     int              `json:"retries"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

func NewGenerationJob(sessionID, sourceID string, params GenerationParams) *GenerationJob {
	now := time.Now()
	return &GenerationJob{
		SessionID: sessionID,
		SourceID:  sourceID,
		Status:    JobStatusPending,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the job to the given status, enforcing monotonicity.
func (j *GenerationJob) Transition(to JobStatus) error {
	if !j.Status.canTransition(to) {
		return domain.ErrJobTerminal
	}
	j.Status = to
	j.UpdatedAt = time.Now()
	if to.Terminal() {
		t := j.UpdatedAt
		j.CompletedAt = &t
	}
	return nil
}

// Complete attaches the generated question set and marks the job completed.
func (j *GenerationJob) Complete(result *QuestionSet) error {
	if err := j.Transition(JobStatusCompleted); err != nil {
		return err
	}
	j.Result = result
	j.LastError = ""
	return nil
}

// Fail records the opaque error string and marks the job failed.
func (j *GenerationJob) Fail(cause string) error {
	if err := j.Transition(JobStatusFailed); err != nil {
		return err
	}
	j.LastError = cause
	return nil
}
