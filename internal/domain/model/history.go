package model

import "time"

// HistoryRecord is the persisted audit trail of one generation session.
// It survives job eviction and backs the admin history endpoints.
type HistoryRecord struct {
	SessionID              string         `json:"session_id"`
	SourceID               string         `json:"source_id"`
	Status                 JobStatus      `json:"status"`
	ContentID              string         `json:"content_id"`
	ChapterName            string         `json:"chapter_name,omitempty"`
	LearningObjectives     []string       `json:"learning_objectives,omitempty"`
	Model                  string         `json:"model,omitempty"`
	TotalQuestions         int            `json:"total_questions"`
	TypeDistribution       map[string]int `json:"question_type_distribution,omitempty"`
	DifficultyDistribution map[string]int `json:"difficulty_distribution,omitempty"`
	BloomsDistribution     map[string]int `json:"blooms_taxonomy_distribution,omitempty"`
	QuestionsGenerated     int            `json:"questions_generated"`
	Message                string         `json:"message,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	CompletedAt            *time.Time     `json:"completed_at,omitempty"`
}

// HistoryFromJob builds the record persisted when a job reaches a terminal state.
func HistoryFromJob(job *GenerationJob) *HistoryRecord {
	rec := &HistoryRecord{
		SessionID:              job.SessionID,
		SourceID:               job.SourceID,
		Status:                 job.Status,
		ContentID:              job.Params.ContentID,
		ChapterName:            job.Params.ChapterName,
		LearningObjectives:     job.Params.LearningObjectives,
		Model:                  job.Params.Model,
		TotalQuestions:         job.Params.TotalQuestions,
		TypeDistribution:       job.Params.TypeDistribution,
		DifficultyDistribution: job.Params.DifficultyDistribution,
		BloomsDistribution:     job.Params.BloomsDistribution,
		Message:                job.LastError,
		CreatedAt:              job.CreatedAt,
		CompletedAt:            job.CompletedAt,
	}
	if job.Result != nil {
		rec.QuestionsGenerated = job.Result.Count()
		if job.Result.Model != "" {
			rec.Model = job.Result.Model
		}
	}
	return rec
}
