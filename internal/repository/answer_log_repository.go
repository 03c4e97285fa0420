package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boqueria/training-api/internal/config"
	"github.com/boqueria/training-api/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AnswerLogQueue enqueues graded answers for the answer log worker.
type AnswerLogQueue struct {
	rdb *redis.Client
}

// NewAnswerLogQueue creates a new AnswerLogQueue.
func NewAnswerLogQueue(rdb *redis.Client) *AnswerLogQueue {
	return &AnswerLogQueue{rdb: rdb}
}

// Push appends one entry to the persistence queue, assigning an id when the
// entry has none.
func (q *AnswerLogQueue) Push(ctx context.Context, entry model.AnswerLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal answer log: %w", err)
	}
	return q.rdb.RPush(ctx, config.WorkerKey.PersistAnswerLogsQueue, raw).Err()
}
