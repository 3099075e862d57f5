package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bleubryce/AgentX-AI-sub001/internal/record"
	"github.com/bleubryce/AgentX-AI-sub001/internal/stats"
)

const listingsSchema = `
CREATE TABLE IF NOT EXISTS listings (
	url          TEXT PRIMARY KEY,
	price        DOUBLE PRECISION NOT NULL,
	address      TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	contact      TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT '',
	extra        JSONB,
	spider_name  TEXT NOT NULL DEFAULT '',
	validated_at TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
)`

// PostgresStore is the durable Store implementation. The uniqueness and
// staleness rules live in one conditional upsert statement, so concurrent
// workers and retried fetches cannot race their way into duplicate rows.
type PostgresStore struct {
	pool  *pgxpool.Pool
	stats *stats.Pipeline
}

func NewPostgresStore(ctx context.Context, dsn string, st *stats.Pipeline) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool, stats: st}, nil
}

// Migrate creates the listings table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, listingsSchema); err != nil {
		return fmt.Errorf("migrate listings: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) Upsert(ctx context.Context, rec record.Stored) (UpsertOutcome, error) {
	if rec.URL == "" {
		s.stats.ProcessingError()
		return 0, fmt.Errorf("upsert: record has no url")
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	var extra []byte
	if len(rec.Extra) > 0 {
		var err error
		if extra, err = json.Marshal(rec.Extra); err != nil {
			s.stats.ProcessingError()
			return 0, fmt.Errorf("encode extra fields: %w", err)
		}
	}

	// ON CONFLICT resolves the insert race; the WHERE clause rejects
	// stale snapshots. No row back means the condition failed.
	// (xmax = 0) distinguishes a fresh insert from an update.
	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO listings
			(url, price, address, description, contact, source, extra, spider_name, validated_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (url) DO UPDATE SET
			price = EXCLUDED.price,
			address = EXCLUDED.address,
			description = EXCLUDED.description,
			contact = EXCLUDED.contact,
			source = EXCLUDED.source,
			extra = EXCLUDED.extra,
			spider_name = EXCLUDED.spider_name,
			validated_at = EXCLUDED.validated_at,
			updated_at = EXCLUDED.updated_at
		WHERE listings.updated_at < EXCLUDED.updated_at
		RETURNING (xmax = 0)`,
		rec.URL, rec.Price, rec.Address, rec.Description, rec.Contact,
		rec.Source, extra, rec.SpiderName, rec.ValidatedAt, rec.UpdatedAt,
	).Scan(&inserted)

	if errors.Is(err, pgx.ErrNoRows) {
		s.stats.Duplicate()
		return OutcomeSkippedStale, nil
	}
	if err != nil {
		s.stats.ProcessingError()
		return 0, fmt.Errorf("upsert %s: %w", rec.URL, err)
	}

	if inserted {
		return OutcomeInserted, nil
	}
	return OutcomeUpdated, nil
}

const selectColumns = `url, price, address, description, contact, source, extra, spider_name, validated_at, updated_at`

func (s *PostgresStore) Get(ctx context.Context, url string) (record.Stored, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM listings WHERE url = $1`, url)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return record.Stored{}, ErrNotFound
	}
	if err != nil {
		return record.Stored{}, fmt.Errorf("get %s: %w", url, err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, filters []Filter, limit, offset int) ([]record.Stored, error) {
	where, args, err := buildWhere(filters)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + selectColumns + ` FROM listings` + where + ` ORDER BY updated_at DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []record.Stored
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list listings: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, url string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	sets := make([]string, 0, len(fields)+1)
	args := []any{url}
	for field, value := range fields {
		if _, ok := updatableColumns[field]; !ok {
			return fmt.Errorf("field %q is not updatable", field)
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", field, len(args)))
	}
	sets = append(sets, "updated_at = now()")

	tag, err := s.pool.Exec(ctx,
		`UPDATE listings SET `+strings.Join(sets, ", ")+` WHERE url = $1`, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", url, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, url string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM listings WHERE url = $1`, url)
	if err != nil {
		return fmt.Errorf("delete %s: %w", url, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var updatableColumns = map[string]struct{}{
	record.FieldPrice:       {},
	record.FieldAddress:     {},
	record.FieldDescription: {},
	record.FieldContact:     {},
}

var filterColumns = map[string]struct{}{
	record.FieldURL:         {},
	record.FieldPrice:       {},
	record.FieldAddress:     {},
	record.FieldDescription: {},
	record.FieldContact:     {},
	record.FieldSource:      {},
	"spider_name":           {},
	"updated_at":            {},
}

func buildWhere(filters []Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		if _, ok := filterColumns[f.Field]; !ok {
			return "", nil, fmt.Errorf("unknown filter field %q", f.Field)
		}
		switch f.Op {
		case OpEquals, OpNotEquals, OpGreaterOrEqual, OpLessOrEqual:
		default:
			return "", nil, fmt.Errorf("filter %s: unknown op %d", f.Field, f.Op)
		}
		args = append(args, f.Value)
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", f.Field, f.Op, len(args)))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func scanRecord(row pgx.Row) (record.Stored, error) {
	var rec record.Stored
	var extra []byte
	if err := row.Scan(
		&rec.URL, &rec.Price, &rec.Address, &rec.Description, &rec.Contact,
		&rec.Source, &extra, &rec.SpiderName, &rec.ValidatedAt, &rec.UpdatedAt,
	); err != nil {
		return record.Stored{}, err
	}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &rec.Extra); err != nil {
			return record.Stored{}, fmt.Errorf("decode extra fields: %w", err)
		}
	}
	return rec, nil
}
