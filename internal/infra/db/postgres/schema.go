package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Schema returns the DDL for the service's tables. The history table name is
// configurable, so the statement is rendered per deployment.
func Schema(historyTable string) string {
	if historyTable == "" {
		historyTable = "question_history"
	}
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS generation_jobs (
    session_id   TEXT PRIMARY KEY,
    source_id    TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL,
    params       JSONB NOT NULL,
    result       JSONB,
    last_error   TEXT NOT NULL DEFAULT '',
    retries      INT NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_generation_jobs_status_created
    ON generation_jobs (status, created_at);

CREATE TABLE IF NOT EXISTS %s (
    session_id          TEXT PRIMARY KEY,
    source_id           TEXT NOT NULL DEFAULT '',
    status              TEXT NOT NULL,
    content_id          TEXT NOT NULL DEFAULT '',
    chapter_name        TEXT NOT NULL DEFAULT '',
    model               TEXT NOT NULL DEFAULT '',
    total_questions     INT NOT NULL DEFAULT 0,
    questions_generated INT NOT NULL DEFAULT 0,
    message             TEXT NOT NULL DEFAULT '',
    payload             TEXT NOT NULL DEFAULT '',
    encrypted           BOOLEAN NOT NULL DEFAULT FALSE,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at        TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_%s_created
    ON %s (created_at DESC);
`, historyTable, historyTable, historyTable)
}

// ApplySchema creates the tables when they do not exist yet.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool, historyTable string) error {
	_, err := pool.Exec(ctx, Schema(historyTable))
	return err
}
