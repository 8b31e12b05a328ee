package model

import (
	"errors"
	"testing"

	"question-bank-service/internal/domain"
)

func paramsFixture() GenerationParams {
	return GenerationParams{
		ContentID:      "content-42",
		TotalQuestions: 6,
		TypeDistribution: map[string]int{
			"mcq": 3, "fib": 2, "tf": 1,
		},
		DifficultyDistribution: map[string]int{
			"easy": 2, "medium": 2, "hard": 2,
		},
		BloomsDistribution: map[string]int{
			"remember": 3, "apply": 3,
		},
	}
}

func TestGenerationParams_Validate(t *testing.T) {
	t.Parallel()

	valid := paramsFixture()
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	cases := map[string]func(*GenerationParams){
		"empty content id":        func(p *GenerationParams) { p.ContentID = " " },
		"zero total":              func(p *GenerationParams) { p.TotalQuestions = 0 },
		"negative total":          func(p *GenerationParams) { p.TotalQuestions = -1 },
		"missing types":           func(p *GenerationParams) { p.TypeDistribution = nil },
		"unknown type key":        func(p *GenerationParams) { p.TypeDistribution["essay"] = 0 },
		"type sum too small":      func(p *GenerationParams) { p.TypeDistribution["mcq"] = 1 },
		"unknown difficulty":      func(p *GenerationParams) { p.DifficultyDistribution = map[string]int{"brutal": 6} },
		"difficulty sum mismatch": func(p *GenerationParams) { p.DifficultyDistribution = map[string]int{"easy": 1} },
		"unknown blooms level":    func(p *GenerationParams) { p.BloomsDistribution = map[string]int{"memorize": 6} },
		"negative count":          func(p *GenerationParams) { p.TypeDistribution = map[string]int{"mcq": 7, "tf": -1} },
	}
	for name, mutate := range cases {
		p := paramsFixture()
		mutate(&p)
		if err := p.Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("%s: want ErrInvalidArgument, got %v", name, err)
		}
	}

	// difficulty and blooms maps are optional
	p := paramsFixture()
	p.DifficultyDistribution = nil
	p.BloomsDistribution = nil
	if err := p.Validate(); err != nil {
		t.Fatalf("optional distributions rejected: %v", err)
	}
}

func TestJobStatus_Transitions(t *testing.T) {
	t.Parallel()

	job := NewGenerationJob("sess-1", "src-1", paramsFixture())
	if job.Status != JobStatusPending {
		t.Fatalf("new job must start pending, got %s", job.Status)
	}

	if err := job.Transition(JobStatusInProgress); err != nil {
		t.Fatalf("pending -> in_progress: %v", err)
	}
	if err := job.Transition(JobStatusPending); !errors.Is(err, domain.ErrJobTerminal) {
		t.Fatalf("in_progress -> pending must be rejected, got %v", err)
	}

	if err := job.Complete(&QuestionSet{SessionID: "sess-1"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if job.CompletedAt == nil {
		t.Fatalf("terminal transition must set CompletedAt")
	}

	// terminal states never revert
	for _, to := range []JobStatus{JobStatusPending, JobStatusInProgress, JobStatusFailed, JobStatusCompleted} {
		if err := job.Transition(to); !errors.Is(err, domain.ErrJobTerminal) {
			t.Fatalf("completed -> %s must be rejected, got %v", to, err)
		}
	}
}

func TestJob_FailRecordsCause(t *testing.T) {
	t.Parallel()

	job := NewGenerationJob("sess-2", "src-1", paramsFixture())
	if err := job.Transition(JobStatusInProgress); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := job.Fail("model timeout"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if job.Status != JobStatusFailed || job.LastError != "model timeout" {
		t.Fatalf("unexpected job: status=%s err=%q", job.Status, job.LastError)
	}
	if !job.Status.Terminal() {
		t.Fatalf("failed must be terminal")
	}
}

func TestHistoryFromJob(t *testing.T) {
	t.Parallel()

	job := NewGenerationJob("sess-3", "src-1", paramsFixture())
	_ = job.Transition(JobStatusInProgress)
	_ = job.Complete(&QuestionSet{
		SessionID: "sess-3",
		Model:     "gemini-1.5-flash",
		Questions: []Question{
			{Type: QuestionTypeMCQ, Stem: "x", AnswerKey: "a"},
			{Type: QuestionTypeTF, Stem: "y", AnswerKey: "true"},
		},
	})

	rec := HistoryFromJob(job)
	if rec.SessionID != "sess-3" || rec.Status != JobStatusCompleted {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.QuestionsGenerated != 2 {
		t.Fatalf("want 2 generated, got %d", rec.QuestionsGenerated)
	}
	if rec.Model != "gemini-1.5-flash" {
		t.Fatalf("result model must win, got %q", rec.Model)
	}
	if rec.CompletedAt == nil {
		t.Fatalf("expected CompletedAt carried over")
	}
}
