package store

import (
	"context"
	"sort"
	"sync"

	"github.com/serroba/shorturl/internal/shortener"
)

type memoryKey struct {
	code    shortener.Code
	longURL string // empty for KeySchemaHash
}

// MemoryStore is an in-memory implementation of Table.
type MemoryStore struct {
	mu      sync.RWMutex
	schema  KeySchema
	entries map[memoryKey]shortener.ShortURL
}

// NewMemoryStore creates a new in-memory store keyed by code only.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithSchema(KeySchemaHash)
}

// NewMemoryStoreWithSchema creates a new in-memory store with the given key schema.
func NewMemoryStoreWithSchema(schema KeySchema) *MemoryStore {
	return &MemoryStore{
		schema:  schema,
		entries: make(map[memoryKey]shortener.ShortURL),
	}
}

func (m *MemoryStore) key(shortURL *shortener.ShortURL) memoryKey {
	if m.schema == KeySchemaHashRange {
		return memoryKey{code: shortURL.Code, longURL: shortURL.LongURL}
	}

	return memoryKey{code: shortURL.Code}
}

func (m *MemoryStore) EnsureTable(_ context.Context) error {
	return nil
}

func (m *MemoryStore) Insert(ctx context.Context, shortURL *shortener.ShortURL) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.key(shortURL)
	if _, ok := m.entries[key]; ok {
		return shortener.ErrAlreadyExists
	}

	m.entries[key] = *shortURL

	return nil
}

func (m *MemoryStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.schema == KeySchemaHash {
		if entry, ok := m.entries[memoryKey{code: code}]; ok {
			return &entry, nil
		}

		return nil, shortener.ErrNotFound
	}

	for key, entry := range m.entries {
		if key.code == code {
			return &entry, nil
		}
	}

	return nil, shortener.ErrNotFound
}

func (m *MemoryStore) GetByURL(ctx context.Context, longURL string) (*shortener.ShortURL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, entry := range m.entries {
		if entry.LongURL == longURL {
			return &entry, nil
		}
	}

	return nil, shortener.ErrNotFound
}

// Scan visits entries ordered by code, then URL.
func (m *MemoryStore) Scan(ctx context.Context, fn func(*shortener.ShortURL) error) error {
	m.mu.RLock()
	entries := make([]shortener.ShortURL, 0, len(m.entries))

	for _, entry := range m.entries {
		entries = append(entries, entry)
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Code != entries[j].Code {
			return entries[i].Code < entries[j].Code
		}

		return entries[i].LongURL < entries[j].LongURL
	})

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := fn(&entries[i]); err != nil {
			return err
		}
	}

	return nil
}

func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Shutdown is a no-op for MemoryStore.
func (m *MemoryStore) Shutdown() error {
	return nil
}

// Compile-time check.
var _ Table = (*MemoryStore)(nil)
