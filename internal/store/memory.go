package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bleubryce/AgentX-AI-sub001/internal/record"
	"github.com/bleubryce/AgentX-AI-sub001/internal/stats"
)

// MemoryStore implements Store on a mutex-guarded map. Same write
// semantics as the Postgres store; used by tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]record.Stored
	stats   *stats.Pipeline

	now func() time.Time
}

func NewMemoryStore(st *stats.Pipeline) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]record.Stored),
		stats:   st,
		now:     time.Now,
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, rec record.Stored) (UpsertOutcome, error) {
	if rec.URL == "" {
		s.stats.ProcessingError()
		return 0, fmt.Errorf("upsert: record has no url")
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[rec.URL]
	if !ok {
		s.records[rec.URL] = rec
		return OutcomeInserted, nil
	}

	// Optimistic concurrency: only a strictly newer observation may
	// replace the stored row.
	if !rec.UpdatedAt.After(existing.UpdatedAt) {
		s.stats.Duplicate()
		return OutcomeSkippedStale, nil
	}

	s.records[rec.URL] = rec
	return OutcomeUpdated, nil
}

func (s *MemoryStore) Get(ctx context.Context, url string) (record.Stored, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[url]
	if !ok {
		return record.Stored{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) List(ctx context.Context, filters []Filter, limit, offset int) ([]record.Stored, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []record.Stored
	for _, rec := range s.records {
		match, err := matchesAll(rec, filters)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, rec)
		}
	}

	// Newest first, like the Postgres ORDER BY.
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, url string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[url]
	if !ok {
		return ErrNotFound
	}

	for field, value := range fields {
		if err := applyField(&rec, field, value); err != nil {
			return err
		}
	}
	rec.UpdatedAt = s.now()
	s.records[url] = rec
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[url]; !ok {
		return ErrNotFound
	}
	delete(s.records, url)
	return nil
}

func matchesAll(rec record.Stored, filters []Filter) (bool, error) {
	for _, f := range filters {
		value, err := fieldValue(rec, f.Field)
		if err != nil {
			return false, err
		}
		ok, err := f.Matches(value)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func fieldValue(rec record.Stored, field string) (any, error) {
	switch field {
	case record.FieldURL:
		return rec.URL, nil
	case record.FieldPrice:
		return rec.Price, nil
	case record.FieldAddress:
		return rec.Address, nil
	case record.FieldDescription:
		return rec.Description, nil
	case record.FieldContact:
		return rec.Contact, nil
	case record.FieldSource:
		return rec.Source, nil
	case "spider_name":
		return rec.SpiderName, nil
	case "updated_at":
		return rec.UpdatedAt, nil
	default:
		return nil, fmt.Errorf("unknown filter field %q", field)
	}
}

func applyField(rec *record.Stored, field string, value any) error {
	switch field {
	case record.FieldPrice:
		price, err := toFloat(value)
		if err != nil {
			return fmt.Errorf("update %s: %w", field, err)
		}
		rec.Price = price
		return nil
	case record.FieldAddress, record.FieldDescription, record.FieldContact:
		text, ok := value.(string)
		if !ok {
			return fmt.Errorf("update %s: expected string, got %T", field, value)
		}
		switch field {
		case record.FieldAddress:
			rec.Address = text
		case record.FieldDescription:
			rec.Description = text
		case record.FieldContact:
			rec.Contact = text
		}
		return nil
	default:
		return fmt.Errorf("field %q is not updatable", field)
	}
}
