package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"question-bank-service/internal/domain"
	"question-bank-service/internal/domain/model"
	"question-bank-service/internal/domain/ports/repository"
)

var _ repository.GenerationJobRepository = (*generationJobRepo)(nil)

type generationJobRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewGenerationJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *generationJobRepo {
	return &generationJobRepo{pool: pool, tm: tm}
}

const jobColumns = `session_id, source_id, status, params, result, last_error, retries, created_at, updated_at, completed_at`

func (r *generationJobRepo) Create(ctx context.Context, tx repository.Tx, job *model.GenerationJob) error {
	params, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	const q = `
INSERT INTO generation_jobs (session_id, source_id, status, params, retries, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err = execSQL(ctx, r.pool, tx, q,
		job.SessionID, job.SourceID, string(job.Status), params, job.Retries, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *generationJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.GenerationJob) error {
	job.UpdatedAt = time.Now()

	params, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	var result []byte
	if job.Result != nil {
		if result, err = json.Marshal(job.Result); err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
	}

	const q = `
INSERT INTO generation_jobs (session_id, source_id, status, params, result, last_error, retries, created_at, updated_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (session_id) DO UPDATE SET
  status = EXCLUDED.status,
  result = EXCLUDED.result,
  last_error = EXCLUDED.last_error,
  retries = EXCLUDED.retries,
  updated_at = EXCLUDED.updated_at,
  completed_at = EXCLUDED.completed_at;`

	_, err = execSQL(ctx, r.pool, tx, q,
		job.SessionID, job.SourceID, string(job.Status), params, result, job.LastError,
		job.Retries, job.CreatedAt, job.UpdatedAt, job.CompletedAt)
	return err
}

func (r *generationJobRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.GenerationJob, error) {
	q := `SELECT ` + jobColumns + ` FROM generation_jobs WHERE session_id = $1;`

	row, err := pickRow(ctx, r.pool, tx, q, sessionID)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

// FetchAndMarkInProgress claims the oldest pending job under FOR UPDATE SKIP
// LOCKED so concurrent workers never double-claim.
func (r *generationJobRepo) FetchAndMarkInProgress(ctx context.Context) (*model.GenerationJob, error) {
	var job *model.GenerationJob

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		fetchQuery := `
SELECT ` + jobColumns + `
FROM generation_jobs
WHERE status = 'pending'
ORDER BY created_at
LIMIT 1
FOR UPDATE SKIP LOCKED;`

		row, err := pickRow(ctx, r.pool, tx, fetchQuery)
		if err != nil {
			return err
		}
		fetched, err := scanJob(row)
		if err != nil {
			return err
		}

		if err := fetched.Transition(model.JobStatusInProgress); err != nil {
			return err
		}
		if err := r.Save(ctx, tx, fetched); err != nil {
			return err
		}

		job = fetched
		return nil
	})

	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	return job, err
}

func (r *generationJobRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	const q = `SELECT status, COUNT(*) FROM generation_jobs GROUP BY status;`

	rows, err := pickRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[status] = n
	}
	return out, rows.Err()
}

func scanJob(row pgx.Row) (*model.GenerationJob, error) {
	var (
		job       model.GenerationJob
		statusStr string
		params    []byte
		result    []byte
	)
	err := row.Scan(
		&job.SessionID, &job.SourceID, &statusStr, &params, &result,
		&job.LastError, &job.Retries, &job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	job.Status = model.JobStatus(statusStr)

	if len(params) > 0 {
		if err := json.Unmarshal(params, &job.Params); err != nil {
			return nil, fmt.Errorf("unmarshal params: %w", err)
		}
	}
	if len(result) > 0 {
		var set model.QuestionSet
		if err := json.Unmarshal(result, &set); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		job.Result = &set
	}
	return &job, nil
}
