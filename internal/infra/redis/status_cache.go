package redis

import (
	"context"
	"encoding/json"
	"time"

	"question-bank-service/internal/domain/model"
	"question-bank-service/internal/infra/metrics"
)

// StatusCache keeps a short-lived JSON snapshot of each job so the status
// endpoint can answer polls without hitting Postgres. Snapshots are immutable
// blobs; a torn read is impossible because the whole value is swapped at once.
type StatusCache struct {
	client *Client
	ttl    time.Duration
}

func NewStatusCache(client *Client, ttl time.Duration) *StatusCache {
	return &StatusCache{client: client, ttl: ttl}
}

func (c *StatusCache) key(sessionID string) string { return "job_status:" + sessionID }

func (c *StatusCache) Store(ctx context.Context, job *model.GenerationJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(job.SessionID), data, c.ttl); err != nil {
		metrics.IncCacheOp("set", "error")
		return err
	}
	metrics.IncCacheOp("set", "ok")
	return nil
}

func (c *StatusCache) Get(ctx context.Context, sessionID string) (*model.GenerationJob, error) {
	data, err := c.client.Get(ctx, c.key(sessionID))
	if err != nil {
		if IsNil(err) {
			metrics.IncCacheOp("get", "miss")
		} else {
			metrics.IncCacheOp("get", "error")
		}
		return nil, err
	}

	var job model.GenerationJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, err
	}
	metrics.IncCacheOp("get", "hit")
	return &job, nil
}

func (c *StatusCache) Invalidate(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID))
}
