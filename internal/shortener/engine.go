package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds the generate-and-insert loop of Engine.Save.
const DefaultMaxAttempts = 10

// Engine shortens URLs on top of a Repository. It keeps no state between
// calls and is safe for concurrent use; uniqueness of codes is enforced by
// the repository's conditional insert.
type Engine struct {
	store        Repository
	generateCode CodeGenerator
	maxAttempts  int
	logger       *zap.Logger
}

// NewEngine creates a new shortening engine.
func NewEngine(store Repository, generator CodeGenerator, maxAttempts int, logger *zap.Logger) *Engine {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Engine{
		store:        store,
		generateCode: generator,
		maxAttempts:  maxAttempts,
		logger:       logger,
	}
}

// Save returns the entry for rawURL, creating one with a fresh code when
// the URL has not been shortened before.
func (e *Engine) Save(ctx context.Context, rawURL string) (*ShortURL, error) {
	longURL := Normalize(rawURL)
	if longURL == "" {
		return nil, ErrInvalidURL
	}

	existing, err := e.findByURL(ctx, longURL)
	if err == nil {
		return existing, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var (
		saved    *ShortURL
		attempts int
	)

	err = retry.Do(ctx, e.backoff(), func(ctx context.Context) error {
		attempts++

		candidate := &ShortURL{
			Code:      Code(e.generateCode()),
			LongURL:   longURL,
			CreatedAt: time.Now().UTC(),
		}

		err := e.store.Insert(ctx, candidate)
		if err == nil {
			saved = candidate

			return nil
		}

		if !errors.Is(err, ErrAlreadyExists) {
			return unavailable(err)
		}

		e.logger.Debug("short code collision",
			zap.String("code", string(candidate.Code)),
			zap.Int("attempt", attempts),
		)

		// A concurrent writer may have shortened the same URL in the meantime.
		winner, err := e.findByURL(ctx, longURL)
		if err == nil {
			saved = winner

			return nil
		}

		if !errors.Is(err, ErrNotFound) {
			return err
		}

		return retry.RetryableError(ErrAlreadyExists)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			e.logger.Error("no free short code found",
				zap.String("url", longURL),
				zap.Int("attempts", attempts),
			)

			return nil, fmt.Errorf("%w after %d attempts", ErrKeySpaceExhausted, attempts)
		}

		return nil, unavailable(err)
	}

	return saved, nil
}

// ShortOf returns the code previously assigned to longURL.
func (e *Engine) ShortOf(ctx context.Context, longURL string) (Code, error) {
	shortURL, err := e.findByURL(ctx, Normalize(longURL))
	if err != nil {
		return "", err
	}

	return shortURL.Code, nil
}

// LongOf returns the URL stored under code.
func (e *Engine) LongOf(ctx context.Context, code Code) (string, error) {
	shortURL, err := e.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", err
		}

		return "", unavailable(err)
	}

	return shortURL.LongURL, nil
}

func (e *Engine) findByURL(ctx context.Context, longURL string) (*ShortURL, error) {
	shortURL, err := e.store.GetByURL(ctx, longURL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}

		return nil, unavailable(err)
	}

	return shortURL, nil
}

// backoff retries immediately; a collision is resolved by a new candidate, not by waiting.
func (e *Engine) backoff() retry.Backoff {
	next := retry.BackoffFunc(func() (time.Duration, bool) {
		return 0, false
	})

	return retry.WithMaxRetries(uint64(e.maxAttempts-1), next)
}

func unavailable(err error) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
