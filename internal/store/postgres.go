package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shorturl/internal/shortener"
)

// PostgresStore is a PostgreSQL implementation of Table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	table  string // sanitized identifier
	schema KeySchema
}

// NewPostgresStore creates a new PostgreSQL-backed mapping table.
func NewPostgresStore(pool *pgxpool.Pool, table string, schema KeySchema) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		table:  pgx.Identifier{table}.Sanitize(),
		schema: schema,
	}
}

func (p *PostgresStore) EnsureTable(ctx context.Context) error {
	primaryKey := "short"
	if p.schema == KeySchemaHashRange {
		primaryKey = "short, long_url"
	}

	// long_url is intentionally not indexed; GetByURL is a sequential scan.
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			short      TEXT        NOT NULL,
			long_url   TEXT        NOT NULL,
			created_at TIMESTAMPTZ,
			PRIMARY KEY (%s)
		)
	`, p.table, primaryKey)

	if _, err := p.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("%w: create table %s: %w", shortener.ErrStorageUnavailable, p.table, err)
	}

	return nil
}

func (p *PostgresStore) Insert(ctx context.Context, shortURL *shortener.ShortURL) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (short, long_url, created_at)
		VALUES ($1, $2, $3)
	`, p.table)

	_, err := p.pool.Exec(ctx, query,
		string(shortURL.Code),
		shortURL.LongURL,
		nullableTime(shortURL.CreatedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return shortener.ErrAlreadyExists
		}

		return err
	}

	return nil
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	query := fmt.Sprintf(`
		SELECT short, long_url, created_at
		FROM %s
		WHERE short = $1
		LIMIT 1
	`, p.table)

	return p.queryOne(ctx, query, string(code))
}

func (p *PostgresStore) GetByURL(ctx context.Context, longURL string) (*shortener.ShortURL, error) {
	query := fmt.Sprintf(`
		SELECT short, long_url, created_at
		FROM %s
		WHERE long_url = $1
		LIMIT 1
	`, p.table)

	return p.queryOne(ctx, query, longURL)
}

func (p *PostgresStore) Scan(ctx context.Context, fn func(*shortener.ShortURL) error) error {
	query := fmt.Sprintf(`
		SELECT short, long_url, created_at
		FROM %s
		ORDER BY short, long_url
	`, p.table)

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return err
	}

	entries, err := pgx.CollectRows(rows, scanShortURL)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := fn(entry); err != nil {
			return err
		}
	}

	return nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown is a no-op for PostgresStore (pool managed externally).
func (p *PostgresStore) Shutdown() error {
	return nil
}

func (p *PostgresStore) queryOne(ctx context.Context, query string, arg string) (*shortener.ShortURL, error) {
	rows, err := p.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}

	url, err := pgx.CollectExactlyOneRow(rows, scanShortURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return url, nil
}

func scanShortURL(row pgx.CollectableRow) (*shortener.ShortURL, error) {
	var (
		url       shortener.ShortURL
		createdAt *time.Time
	)

	if err := row.Scan(&url.Code, &url.LongURL, &createdAt); err != nil {
		return nil, err
	}

	if createdAt != nil {
		url.CreatedAt = *createdAt
	}

	return &url, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}

// Compile-time check.
var _ Table = (*PostgresStore)(nil)
