package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default Redis keys, also watched by the metrics queue-depth monitor.
const (
	QueueKey   = "harvester:queue"
	VisitedKey = "harvester:visited"
	DLQKey     = "harvester:dlq"
)

type RedisQueue struct {
	client     *redis.Client
	queueKey   string
	visitedKey string
	dlqKey     string
}

type DeadLetter struct {
	Target Target `json:"target"`
	Error  string `json:"error"`
	Time   string `json:"time,omitempty"`
}

func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{
		client:     rdb,
		queueKey:   QueueKey,
		visitedKey: VisitedKey,
		dlqKey:     DLQKey,
	}
}

func (q *RedisQueue) Push(ctx context.Context, targets []Target) error {
	for _, t := range targets {
		if t.ID == "" {
			t.ID = t.URL
		}
		isNew, err := q.client.SAdd(ctx, q.visitedKey, t.dedupKey()).Result()
		if err != nil {
			return err
		}
		if isNew != 1 {
			continue
		}
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if err := q.client.RPush(ctx, q.queueKey, data).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context) (Target, error) {
	var t Target
	data, err := q.client.LPop(ctx, q.queueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return t, ErrEmpty
		}
		return t, err
	}

	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return t, err
	}
	return t, nil
}

func (q *RedisQueue) PushDLQ(ctx context.Context, t Target, reason string) error {
	dl := DeadLetter{
		Target: t,
		Error:  reason,
		Time:   time.Now().Format(time.RFC3339),
	}

	data, err := json.Marshal(dl)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.dlqKey, data).Err()
}
