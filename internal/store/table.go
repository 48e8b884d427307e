package store

import (
	"context"
	"errors"

	"github.com/serroba/shorturl/internal/shortener"
)

// KeySchema describes the primary key of a mapping table.
type KeySchema int

const (
	// KeySchemaHash keys entries by "short" only. Every code is unique.
	KeySchemaHash KeySchema = iota
	// KeySchemaHashRange keys entries by ("short", "long_url"). Legacy layout
	// that lets the same code exist once per URL; kept for the migration.
	KeySchemaHashRange
)

func (k KeySchema) String() string {
	if k == KeySchemaHashRange {
		return "hash+range"
	}

	return "hash"
}

// DefaultTableName is the name of the steady-state mapping table.
const DefaultTableName = "short"

// Table is a mapping table adapter.
type Table interface {
	shortener.Repository

	// EnsureTable creates the table if it is absent. It is safe to call repeatedly.
	EnsureTable(ctx context.Context) error

	// Scan calls fn for every entry until fn returns an error.
	Scan(ctx context.Context, fn func(*shortener.ShortURL) error) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// errStopScan ends a Scan early without reporting a failure.
var errStopScan = errors.New("stop scan")
