// Package migrate copies mapping entries between tables. It implements the
// runbook that moved the legacy (short, long_url)-keyed table to a table keyed
// by short only: copy legacy → intermediate, recreate the original table,
// copy intermediate → original. Dropping tables is left to the operator.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/serroba/shorturl/internal/messaging"
	"github.com/serroba/shorturl/internal/shortener"
	"go.uber.org/zap"
)

const topicEntries = "migration.entries"

// Source is a table whose entries can be enumerated.
type Source interface {
	Scan(ctx context.Context, fn func(*shortener.ShortURL) error) error
}

// Target is a table entries are copied into.
type Target interface {
	EnsureTable(ctx context.Context) error
	Insert(ctx context.Context, shortURL *shortener.ShortURL) error
}

// Report summarizes a migration run.
type Report struct {
	Copied  int
	Skipped int // code already present in the target
	Failed  int
}

func (r Report) String() string {
	return fmt.Sprintf("copied=%d skipped=%d failed=%d", r.Copied, r.Skipped, r.Failed)
}

type entry struct {
	Short     string    `json:"short"`
	LongURL   string    `json:"long_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Migrator copies every entry of a source table into a target table.
type Migrator struct {
	source Source
	target Target
	logger *zap.Logger
}

// New creates a new migrator.
func New(source Source, target Target, logger *zap.Logger) *Migrator {
	return &Migrator{
		source: source,
		target: target,
		logger: logger,
	}
}

// Run ensures the target table exists, then streams the source entries
// through an in-process topic to a handler that inserts them conditionally.
// Failed inserts are counted and logged; they do not stop the run.
func (m *Migrator) Run(ctx context.Context) (Report, error) {
	if err := m.target.EnsureTable(ctx); err != nil {
		return Report{}, fmt.Errorf("ensure target table: %w", err)
	}

	var copied, skipped atomic.Int64

	pipeline := messaging.NewPipeline(topicEntries, func(ctx context.Context, e *entry) error {
		copiedNow, err := m.copyEntry(ctx, e)
		if err != nil {
			return err
		}

		if copiedNow {
			copied.Add(1)
		} else {
			skipped.Add(1)
		}

		return nil
	}, m.logger)

	if err := pipeline.Start(ctx); err != nil {
		return Report{}, fmt.Errorf("start pipeline: %w", err)
	}

	scanErr := m.source.Scan(ctx, func(shortURL *shortener.ShortURL) error {
		return pipeline.Send(ctx, &entry{
			Short:     string(shortURL.Code),
			LongURL:   shortURL.LongURL,
			CreatedAt: shortURL.CreatedAt,
		})
	})

	_ = pipeline.Close()

	report := Report{
		Copied:  int(copied.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(pipeline.Stats().Rejected),
	}

	m.logger.Info("migration finished",
		zap.Int("copied", report.Copied),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)

	if scanErr != nil {
		return report, fmt.Errorf("scan source table: %w", scanErr)
	}

	return report, nil
}

// copyEntry inserts e into the target. It reports false when the target
// already holds the code.
func (m *Migrator) copyEntry(ctx context.Context, e *entry) (bool, error) {
	shortURL := &shortener.ShortURL{
		Code:      shortener.Code(e.Short),
		LongURL:   e.LongURL,
		CreatedAt: e.CreatedAt,
	}

	err := m.target.Insert(ctx, shortURL)

	switch {
	case err == nil:
		m.logger.Info("copied entry", zap.String("short", e.Short), zap.String("long_url", e.LongURL))

		return true, nil
	case errors.Is(err, shortener.ErrAlreadyExists):
		m.logger.Info("skipped duplicate short", zap.String("short", e.Short), zap.String("long_url", e.LongURL))

		return false, nil
	default:
		return false, fmt.Errorf("copy %s: %w", e.Short, err)
	}
}
