package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/shorturl/internal/shortener"
	"github.com/serroba/shorturl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTableContract checks the behavior every hash-keyed Table must share.
// newTable must return an empty, ensured table.
func testTableContract(t *testing.T, newTable func(t *testing.T) store.Table) {
	t.Helper()

	ctx := context.Background()

	t.Run("insert and get by code", func(t *testing.T) {
		table := newTable(t)
		entry := &shortener.ShortURL{
			Code:      "ab12",
			LongURL:   "https://example.com",
			CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		}

		require.NoError(t, table.Insert(ctx, entry))

		got, err := table.GetByCode(ctx, entry.Code)
		require.NoError(t, err)
		assert.Equal(t, entry.Code, got.Code)
		assert.Equal(t, entry.LongURL, got.LongURL)
		assert.True(t, entry.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("conditional insert never overwrites", func(t *testing.T) {
		table := newTable(t)

		require.NoError(t, table.Insert(ctx, &shortener.ShortURL{Code: "cd34", LongURL: "https://old.com"}))

		err := table.Insert(ctx, &shortener.ShortURL{Code: "cd34", LongURL: "https://new.com"})
		require.ErrorIs(t, err, shortener.ErrAlreadyExists)

		got, err := table.GetByCode(ctx, "cd34")
		require.NoError(t, err)
		assert.Equal(t, "https://old.com", got.LongURL)
	})

	t.Run("get by url", func(t *testing.T) {
		table := newTable(t)

		require.NoError(t, table.Insert(ctx, &shortener.ShortURL{Code: "ef56", LongURL: "https://a.com"}))
		require.NoError(t, table.Insert(ctx, &shortener.ShortURL{Code: "gh78", LongURL: "https://b.com"}))

		got, err := table.GetByURL(ctx, "https://b.com")
		require.NoError(t, err)
		assert.Equal(t, shortener.Code("gh78"), got.Code)
	})

	t.Run("missing entries return ErrNotFound", func(t *testing.T) {
		table := newTable(t)

		got, err := table.GetByCode(ctx, "zzzz")
		assert.Nil(t, got)
		require.ErrorIs(t, err, shortener.ErrNotFound)

		got, err = table.GetByURL(ctx, "https://nowhere.com")
		assert.Nil(t, got)
		require.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("scan visits every entry", func(t *testing.T) {
		table := newTable(t)
		want := map[shortener.Code]string{
			"aa11": "https://1.com",
			"bb22": "https://2.com",
			"cc33": "https://3.com",
		}

		for code, longURL := range want {
			require.NoError(t, table.Insert(ctx, &shortener.ShortURL{Code: code, LongURL: longURL}))
		}

		got := make(map[shortener.Code]string)
		err := table.Scan(ctx, func(entry *shortener.ShortURL) error {
			got[entry.Code] = entry.LongURL

			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("ensure table is idempotent", func(t *testing.T) {
		table := newTable(t)

		require.NoError(t, table.EnsureTable(ctx))
		require.NoError(t, table.Ping(ctx))
	})

	t.Run("one winner among concurrent inserts of the same code", func(t *testing.T) {
		table := newTable(t)

		const writers = 8

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)

		for i := range writers {
			wg.Add(1)

			go func() {
				defer wg.Done()

				err := table.Insert(ctx, &shortener.ShortURL{
					Code:    "race",
					LongURL: "https://example.com/" + string(rune('a'+i)),
				})
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()

					return
				}

				assert.ErrorIs(t, err, shortener.ErrAlreadyExists)
			}()
		}

		wg.Wait()

		assert.Equal(t, 1, wins)
	})
}
