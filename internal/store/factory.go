package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shorturl/internal/shortener"
)

// Backend names a table backend.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
	BackendDynamoDB Backend = "dynamodb"
)

// BackendConfig holds the connection settings of every backend; only the
// fields of the selected Backend are used.
type BackendConfig struct {
	Backend        Backend
	DatabaseURL    string
	RedisAddr      string
	AWSRegion      string
	DynamoEndpoint string
}

// Factory opens mapping tables on one backend, sharing a single client.
type Factory struct {
	backend Backend
	pool    *pgxpool.Pool
	redis   *redis.Client
	dynamo  *dynamodb.Client

	mu     sync.Mutex
	memory map[string]*MemoryStore
}

// NewFactory connects to the configured backend. Clients connect lazily,
// so reachability is checked by Table.EnsureTable.
func NewFactory(ctx context.Context, cfg BackendConfig) (*Factory, error) {
	f := &Factory{backend: cfg.Backend}

	switch cfg.Backend {
	case BackendMemory:
		f.memory = make(map[string]*MemoryStore)
	case BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shortener.ErrStorageUnavailable, err)
		}

		f.pool = pool
	case BackendRedis:
		f.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	case BackendDynamoDB:
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}

		f.dynamo = dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
			}
		})
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	return f, nil
}

// Backend returns the backend this factory opens tables on.
func (f *Factory) Backend() Backend {
	return f.backend
}

// Open returns the table name with the given key schema. The table is not
// created; call EnsureTable on the result.
func (f *Factory) Open(name string, schema KeySchema) (Table, error) {
	switch f.backend {
	case BackendMemory:
		f.mu.Lock()
		defer f.mu.Unlock()

		table, ok := f.memory[name]
		if !ok {
			table = NewMemoryStoreWithSchema(schema)
			f.memory[name] = table
		}

		return table, nil
	case BackendPostgres:
		return NewPostgresStore(f.pool, name, schema), nil
	case BackendRedis:
		if schema != KeySchemaHash {
			return nil, fmt.Errorf("redis backend does not support the %s key schema", schema)
		}

		return NewRedisStore(f.redis, name), nil
	case BackendDynamoDB:
		return NewDynamoStore(f.dynamo, name, schema), nil
	}

	return nil, fmt.Errorf("unknown backend %q", f.backend)
}

// Redis returns the Redis client, or nil when the backend is not Redis.
func (f *Factory) Redis() *redis.Client {
	return f.redis
}

// Shutdown releases the backend client.
func (f *Factory) Shutdown() error {
	if f.pool != nil {
		f.pool.Close()
	}

	if f.redis != nil {
		return f.redis.Close()
	}

	return nil
}
