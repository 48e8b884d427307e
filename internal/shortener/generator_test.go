package shortener_test

import (
	"strings"
	"testing"

	"github.com/serroba/shorturl/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRandomGenerator(t *testing.T) {
	t.Run("generates alphanumeric codes of the requested length", func(t *testing.T) {
		gen, err := shortener.NewRandomGenerator(6)
		require.NoError(t, err)

		for range 100 {
			code := gen()

			assert.Len(t, code, 6)

			for _, r := range code {
				assert.True(t, strings.ContainsRune(shortener.Alphabet, r), "unexpected rune %q", r)
			}
		}
	})

	t.Run("defaults to four characters", func(t *testing.T) {
		gen, err := shortener.NewRandomGenerator(0)
		require.NoError(t, err)

		assert.Len(t, gen(), shortener.DefaultCodeLength)
	})

	t.Run("produces varying codes", func(t *testing.T) {
		gen, err := shortener.NewRandomGenerator(shortener.DefaultCodeLength)
		require.NoError(t, err)

		seen := make(map[string]struct{})
		for range 50 {
			seen[gen()] = struct{}{}
		}

		assert.Greater(t, len(seen), 40)
	})
}
