package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"question-bank-service/internal/domain"
	"question-bank-service/internal/domain/model"
	"question-bank-service/internal/domain/ports/repository"
	"question-bank-service/internal/infra/security"
)

var _ repository.HistoryRepository = (*historyRepo)(nil)

// identRe guards the configurable table name against injection; the history
// table name comes from config (QUESTION_HISTORY_TABLE).
var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// historyRepo persists generation history, one row per session.
// The generated question payload is stored alongside the summary columns and is
// encrypted at rest when an encryption service is configured (course content
// may be licensed material).
type historyRepo struct {
	pool   *pgxpool.Pool
	table  string
	encSvc *security.EncryptionService
}

func NewHistoryRepo(pool *pgxpool.Pool, table string, encSvc *security.EncryptionService) (*historyRepo, error) {
	if table == "" {
		table = "question_history"
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid history table name %q", table)
	}
	return &historyRepo{pool: pool, table: table, encSvc: encSvc}, nil
}

type historyPayload struct {
	LearningObjectives     []string       `json:"learning_objectives,omitempty"`
	TypeDistribution       map[string]int `json:"question_type_distribution,omitempty"`
	DifficultyDistribution map[string]int `json:"difficulty_distribution,omitempty"`
	BloomsDistribution     map[string]int `json:"blooms_taxonomy_distribution,omitempty"`
}

func (r *historyRepo) Save(ctx context.Context, tx repository.Tx, rec *model.HistoryRecord) error {
	payload, err := json.Marshal(historyPayload{
		LearningObjectives:     rec.LearningObjectives,
		TypeDistribution:       rec.TypeDistribution,
		DifficultyDistribution: rec.DifficultyDistribution,
		BloomsDistribution:     rec.BloomsDistribution,
	})
	if err != nil {
		return fmt.Errorf("marshal history payload: %w", err)
	}

	stored := string(payload)
	encFlag := false
	if r.encSvc != nil {
		if stored, err = r.encSvc.Encrypt(string(payload)); err != nil {
			return fmt.Errorf("encrypt history payload: %w", err)
		}
		encFlag = true
	}

	q := fmt.Sprintf(`
INSERT INTO %s (session_id, source_id, status, content_id, chapter_name, model, total_questions, questions_generated, message, payload, encrypted, created_at, completed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (session_id) DO UPDATE SET
  status = EXCLUDED.status,
  questions_generated = EXCLUDED.questions_generated,
  message = EXCLUDED.message,
  payload = EXCLUDED.payload,
  encrypted = EXCLUDED.encrypted,
  completed_at = EXCLUDED.completed_at;`, r.table)

	_, err = execSQL(ctx, r.pool, tx, q,
		rec.SessionID, rec.SourceID, string(rec.Status), rec.ContentID, rec.ChapterName,
		rec.Model, rec.TotalQuestions, rec.QuestionsGenerated, rec.Message,
		stored, encFlag, rec.CreatedAt, rec.CompletedAt)
	return err
}

const historyColumns = `session_id, source_id, status, content_id, chapter_name, model, total_questions, questions_generated, message, payload, encrypted, created_at, completed_at`

func (r *historyRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.HistoryRecord, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE session_id = $1;`, historyColumns, r.table)

	row, err := pickRow(ctx, r.pool, tx, q, sessionID)
	if err != nil {
		return nil, err
	}
	return r.scanRecord(row)
}

func (r *historyRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.HistoryRecord, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at DESC OFFSET $1 LIMIT $2;`, historyColumns, r.table)

	rows, err := pickRows(ctx, r.pool, tx, q, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.HistoryRecord
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *historyRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s;`, r.table)

	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *historyRepo) DeleteOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE completed_at IS NOT NULL AND completed_at < $1;`, r.table)

	tag, err := execSQL(ctx, r.pool, tx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *historyRepo) scanRecord(row pgx.Row) (*model.HistoryRecord, error) {
	var (
		rec       model.HistoryRecord
		statusStr string
		payload   string
		encFlag   bool
	)
	err := row.Scan(
		&rec.SessionID, &rec.SourceID, &statusStr, &rec.ContentID, &rec.ChapterName,
		&rec.Model, &rec.TotalQuestions, &rec.QuestionsGenerated, &rec.Message,
		&payload, &encFlag, &rec.CreatedAt, &rec.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	rec.Status = model.JobStatus(statusStr)

	if encFlag {
		if r.encSvc == nil {
			return nil, fmt.Errorf("history row %s is encrypted but no key is configured", rec.SessionID)
		}
		if payload, err = r.encSvc.Decrypt(payload); err != nil {
			return nil, fmt.Errorf("decrypt history payload: %w", err)
		}
	}
	if payload != "" {
		var p historyPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("unmarshal history payload: %w", err)
		}
		rec.LearningObjectives = p.LearningObjectives
		rec.TypeDistribution = p.TypeDistribution
		rec.DifficultyDistribution = p.DifficultyDistribution
		rec.BloomsDistribution = p.BloomsDistribution
	}
	return &rec, nil
}
