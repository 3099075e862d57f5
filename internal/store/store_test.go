package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bleubryce/AgentX-AI-sub001/internal/record"
	"github.com/bleubryce/AgentX-AI-sub001/internal/stats"
)

func storedRecord(url string, price float64, updatedAt time.Time) record.Stored {
	return record.Stored{
		Validated: record.Validated{
			URL:         url,
			Price:       price,
			Address:     "1 Main St",
			Description: "Charming three bedroom home with a large garden.",
			Source:      "mls",
			ValidatedAt: updatedAt,
		},
		SpiderName: "attom-api",
		UpdatedAt:  updatedAt,
	}
}

func TestUpsertOutcomes(t *testing.T) {
	st := stats.New()
	s := NewMemoryStore(st)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	outcome, err := s.Upsert(ctx, storedRecord("https://x.com/1", 500_000, base))
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	// Same timestamp: the stored row is not strictly older, so skip.
	outcome, err = s.Upsert(ctx, storedRecord("https://x.com/1", 510_000, base))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedStale, outcome)

	// Older observation: skip.
	outcome, err = s.Upsert(ctx, storedRecord("https://x.com/1", 490_000, base.Add(-time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedStale, outcome)

	// Strictly newer observation: replace.
	outcome, err = s.Upsert(ctx, storedRecord("https://x.com/1", 520_000, base.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	got, err := s.Get(ctx, "https://x.com/1")
	require.NoError(t, err)
	assert.Equal(t, 520_000.0, got.Price)

	assert.Equal(t, int64(2), st.Snapshot().Duplicates)
}

func TestUpsertRejectsEmptyURL(t *testing.T) {
	st := stats.New()
	s := NewMemoryStore(st)

	_, err := s.Upsert(context.Background(), storedRecord("", 100_000, time.Now()))
	require.Error(t, err)
	assert.Equal(t, int64(1), st.Snapshot().ProcessingErrors)
}

func TestUpsertConcurrentSameURL(t *testing.T) {
	s := NewMemoryStore(stats.New())
	ctx := context.Background()
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	const writers = 8
	outcomes := make([]UpsertOutcome, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := s.Upsert(ctx, storedRecord("https://x.com/race", 100_000, ts))
			assert.NoError(t, err)
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	inserted := 0
	for _, o := range outcomes {
		if o == OutcomeInserted {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted, "racing writers must settle on exactly one insert")

	rows, err := s.List(ctx, nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestListFilters(t *testing.T) {
	s := NewMemoryStore(stats.New())
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	seed := []struct {
		url   string
		price float64
		age   time.Duration
	}{
		{"https://x.com/1", 300_000, 0},
		{"https://x.com/2", 600_000, time.Hour},
		{"https://x.com/3", 900_000, 2 * time.Hour},
	}
	for _, row := range seed {
		_, err := s.Upsert(ctx, storedRecord(row.url, row.price, base.Add(row.age)))
		require.NoError(t, err)
	}

	// Price range.
	rows, err := s.List(ctx, []Filter{
		GreaterOrEqual(record.FieldPrice, 400_000),
		LessOrEqual(record.FieldPrice, 800_000),
	}, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "https://x.com/2", rows[0].URL)

	// Exact match and exclusion.
	rows, err = s.List(ctx, []Filter{Equals(record.FieldURL, "https://x.com/1")}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = s.List(ctx, []Filter{NotEquals(record.FieldURL, "https://x.com/1")}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// Unknown field is an error, not an empty result.
	_, err = s.List(ctx, []Filter{Equals("bathrooms", 2)}, 0, 0)
	assert.Error(t, err)
}

func TestListOrderingAndPagination(t *testing.T) {
	s := NewMemoryStore(stats.New())
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	urls := []string{"https://x.com/a", "https://x.com/b", "https://x.com/c"}
	for i, url := range urls {
		_, err := s.Upsert(ctx, storedRecord(url, 100_000, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	rows, err := s.List(ctx, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "https://x.com/c", rows[0].URL, "newest first")

	rows, err = s.List(ctx, nil, 1, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "https://x.com/b", rows[0].URL)

	rows, err = s.List(ctx, nil, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, rows, "offset past the end is an empty page")
}

func TestUpdateFields(t *testing.T) {
	s := NewMemoryStore(stats.New())
	ctx := context.Background()
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.Upsert(ctx, storedRecord("https://x.com/1", 300_000, ts))
	require.NoError(t, err)

	err = s.Update(ctx, "https://x.com/1", map[string]any{
		"price":   int(350_000),
		"contact": "agent@example.com",
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, "https://x.com/1")
	require.NoError(t, err)
	assert.Equal(t, 350_000.0, got.Price)
	assert.Equal(t, "agent@example.com", got.Contact)
	assert.True(t, got.UpdatedAt.After(ts), "update refreshes the timestamp")

	assert.Error(t, s.Update(ctx, "https://x.com/1", map[string]any{"url": "https://y.com"}), "key field is not updatable")
	assert.ErrorIs(t, s.Update(ctx, "https://missing", map[string]any{"price": 1.0}), ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := NewMemoryStore(stats.New())
	ctx := context.Background()

	_, err := s.Upsert(ctx, storedRecord("https://x.com/1", 300_000, time.Now()))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "https://x.com/1"))
	_, err = s.Get(ctx, "https://x.com/1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "https://x.com/1"), ErrNotFound)
}

func TestFilterMatches(t *testing.T) {
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name    string
		filter  Filter
		value   any
		want    bool
		wantErr bool
	}{
		{name: "string_equals", filter: Equals("source", "mls"), value: "mls", want: true},
		{name: "string_not_equals", filter: NotEquals("source", "mls"), value: "fsbo", want: true},
		{name: "float_gte_hit", filter: GreaterOrEqual("price", 100_000), value: 150_000.0, want: true},
		{name: "float_gte_boundary", filter: GreaterOrEqual("price", 100_000.0), value: 100_000.0, want: true},
		{name: "float_lte_miss", filter: LessOrEqual("price", 100_000), value: 150_000.0, want: false},
		{name: "time_gte", filter: GreaterOrEqual("updated_at", ts), value: ts.Add(time.Hour), want: true},
		{name: "type_mismatch", filter: Equals("price", "expensive"), value: 100_000.0, wantErr: true},
		{name: "unsupported_type", filter: Equals("extra", 1), value: map[string]string{}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.filter.Matches(tc.value)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "=", OpEquals.String())
	assert.Equal(t, "<>", OpNotEquals.String())
	assert.Equal(t, ">=", OpGreaterOrEqual.String())
	assert.Equal(t, "<=", OpLessOrEqual.String())
}
