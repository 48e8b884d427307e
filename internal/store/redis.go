package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shorturl/internal/shortener"
)

// redisRecord is the JSON value stored under each entry key.
type redisRecord struct {
	LongURL   string `json:"long_url"`
	CreatedAt int64  `json:"created_at,omitempty"` // unix nanos
}

// RedisStore is a Redis implementation of Table.
// Each entry lives under "<table>:<code>"; Redis only supports KeySchemaHash.
type RedisStore struct {
	client   *redis.Client
	prefix   string
	scanSize int64
}

// NewRedisStore creates a new Redis-backed mapping table.
func NewRedisStore(client *redis.Client, table string) *RedisStore {
	return &RedisStore{
		client:   client,
		prefix:   table + ":",
		scanSize: 100,
	}
}

// EnsureTable only checks connectivity: the key prefix needs no provisioning.
func (r *RedisStore) EnsureTable(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", shortener.ErrStorageUnavailable, err)
	}

	return nil
}

func (r *RedisStore) Insert(ctx context.Context, shortURL *shortener.ShortURL) error {
	record := redisRecord{LongURL: shortURL.LongURL}
	if !shortURL.CreatedAt.IsZero() {
		record.CreatedAt = shortURL.CreatedAt.UnixNano()
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	ok, err := r.client.SetNX(ctx, r.prefix+string(shortURL.Code), payload, 0).Result()
	if err != nil {
		return err
	}

	if !ok {
		return shortener.ErrAlreadyExists
	}

	return nil
}

func (r *RedisStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	payload, err := r.client.Get(ctx, r.prefix+string(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return decodeRecord(code, payload)
}

// GetByURL walks the whole key prefix with SCAN.
func (r *RedisStore) GetByURL(ctx context.Context, longURL string) (*shortener.ShortURL, error) {
	var found *shortener.ShortURL

	err := r.Scan(ctx, func(entry *shortener.ShortURL) error {
		if entry.LongURL == longURL {
			found = entry

			return errStopScan
		}

		return nil
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return nil, err
	}

	if found == nil {
		return nil, shortener.ErrNotFound
	}

	return found, nil
}

func (r *RedisStore) Scan(ctx context.Context, fn func(*shortener.ShortURL) error) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", r.scanSize).Iterator()

	for iter.Next(ctx) {
		key := iter.Val()
		code := shortener.Code(key[len(r.prefix):])

		entry, err := r.GetByCode(ctx, code)
		if err != nil {
			// Deleted between SCAN and GET.
			if errors.Is(err, shortener.ErrNotFound) {
				continue
			}

			return err
		}

		if err := fn(entry); err != nil {
			return err
		}
	}

	return iter.Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Shutdown is a no-op for RedisStore (client managed externally).
func (r *RedisStore) Shutdown() error {
	return nil
}

func decodeRecord(code shortener.Code, payload []byte) (*shortener.ShortURL, error) {
	var record redisRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode entry %s: %w", code, err)
	}

	url := &shortener.ShortURL{
		Code:    code,
		LongURL: record.LongURL,
	}

	if record.CreatedAt != 0 {
		url.CreatedAt = time.Unix(0, record.CreatedAt).UTC()
	}

	return url, nil
}

// Compile-time check.
var _ Table = (*RedisStore)(nil)
