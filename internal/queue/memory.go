package queue

import (
	"context"
	"sync"
)

type MemoryQueue struct {
	mu      sync.Mutex
	pending []Target
	visited map[string]struct{}
	dead    []DeadLetter
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		visited: make(map[string]struct{}),
	}
}

func (q *MemoryQueue) Push(ctx context.Context, targets []Target) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, t := range targets {
		if t.ID == "" {
			t.ID = t.URL
		}
		key := t.dedupKey()
		if _, seen := q.visited[key]; seen {
			continue
		}
		q.pending = append(q.pending, t)
		q.visited[key] = struct{}{}
	}
	return nil
}

func (q *MemoryQueue) Pop(ctx context.Context) (Target, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return Target{}, ErrEmpty
	}

	t := q.pending[0]
	q.pending = q.pending[1:]
	return t, nil
}

func (q *MemoryQueue) PushDLQ(ctx context.Context, t Target, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.dead = append(q.dead, DeadLetter{Target: t, Error: reason})
	return nil
}

// DeadLetters returns a copy of the dead-letter list.
func (q *MemoryQueue) DeadLetters() []DeadLetter {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]DeadLetter(nil), q.dead...)
}
