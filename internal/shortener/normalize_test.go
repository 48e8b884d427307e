package shortener_test

import (
	"testing"

	"github.com/serroba/shorturl/internal/shortener"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"unchanged", "http://example.com", "http://example.com"},
		{"trailing newline", "http://example.com\n", "http://example.com"},
		{"trailing crlf and spaces", "http://example.com \r\n", "http://example.com"},
		{"leading space kept", " http://example.com", " http://example.com"},
		{"inner space kept", "http://example.com/a b", "http://example.com/a b"},
		{"only whitespace", " \n\t", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shortener.Normalize(tt.raw))
		})
	}
}
