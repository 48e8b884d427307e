package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/serroba/shorturl/internal/handlers"
	"github.com/serroba/shorturl/internal/shortener"
	"github.com/serroba/shorturl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testURL     = "https://example.com"
	testBaseURL = "http://localhost:8888"
)

var errMock = errors.New("mock error")

// stubEngine returns fixed errors for every operation.
type stubEngine struct {
	err error
}

func (s *stubEngine) Save(context.Context, string) (*shortener.ShortURL, error) {
	return nil, s.err
}

func (s *stubEngine) ShortOf(context.Context, string) (shortener.Code, error) {
	return "", s.err
}

func (s *stubEngine) LongOf(context.Context, shortener.Code) (string, error) {
	return "", s.err
}

func newTestAPI(t *testing.T, engine handlers.Shortener) humatest.TestAPI {
	t.Helper()

	_, api := humatest.New(t)
	handlers.RegisterRoutes(api, handlers.NewURLHandler(engine, testBaseURL, zap.NewNop()))

	return api
}

func newMemoryEngine(t *testing.T) *shortener.Engine {
	t.Helper()

	gen, err := shortener.NewRandomGenerator(shortener.DefaultCodeLength)
	require.NoError(t, err)

	return shortener.NewEngine(store.NewMemoryStore(), gen, shortener.DefaultMaxAttempts, zap.NewNop())
}

func decodeBody(t *testing.T, raw []byte) handlers.ShortURLBody {
	t.Helper()

	var body handlers.ShortURLBody
	require.NoError(t, json.Unmarshal(raw, &body))

	return body
}

func TestCreateShortURL(t *testing.T) {
	t.Run("creates short url successfully", func(t *testing.T) {
		api := newTestAPI(t, newMemoryEngine(t))

		resp := api.Post("/shorten", map[string]any{"url": "https://example.com/very/long/path"})

		require.Equal(t, http.StatusOK, resp.Code)

		body := decodeBody(t, resp.Body.Bytes())
		assert.Len(t, body.Short, shortener.DefaultCodeLength)
		assert.Equal(t, "https://example.com/very/long/path", body.LongURL)
		assert.Equal(t, testBaseURL+"/"+body.Short, body.ShortURL)
		assert.Equal(t, body.ShortURL, resp.Header().Get("Location"))
	})

	t.Run("returns the same code for the same url", func(t *testing.T) {
		api := newTestAPI(t, newMemoryEngine(t))

		first := decodeBody(t, api.Post("/shorten", map[string]any{"url": testURL}).Body.Bytes())
		second := decodeBody(t, api.Post("/shorten", map[string]any{"url": testURL + "\n"}).Body.Bytes())

		assert.Equal(t, first.Short, second.Short)
		assert.Equal(t, testURL, second.LongURL)
	})

	t.Run("rejects empty url", func(t *testing.T) {
		api := newTestAPI(t, newMemoryEngine(t))

		resp := api.Post("/shorten", map[string]any{"url": ""})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("rejects whitespace-only url", func(t *testing.T) {
		api := newTestAPI(t, newMemoryEngine(t))

		resp := api.Post("/shorten", map[string]any{"url": " \n"})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("maps storage errors to 503", func(t *testing.T) {
		api := newTestAPI(t, &stubEngine{err: shortener.ErrStorageUnavailable})

		resp := api.Post("/shorten", map[string]any{"url": testURL})

		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})

	t.Run("maps unexpected errors to 500", func(t *testing.T) {
		api := newTestAPI(t, &stubEngine{err: shortener.ErrKeySpaceExhausted})

		resp := api.Post("/shorten", map[string]any{"url": testURL})

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestLookupShortURL(t *testing.T) {
	t.Run("finds the code of a saved url", func(t *testing.T) {
		api := newTestAPI(t, newMemoryEngine(t))
		created := decodeBody(t, api.Post("/shorten", map[string]any{"url": testURL}).Body.Bytes())

		resp := api.Get("/lookup?url=" + url.QueryEscape(testURL))

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, created, decodeBody(t, resp.Body.Bytes()))
	})

	t.Run("returns 404 for unknown url", func(t *testing.T) {
		api := newTestAPI(t, newMemoryEngine(t))

		resp := api.Get("/lookup?url=" + url.QueryEscape(testURL))

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("maps unexpected errors to 500", func(t *testing.T) {
		api := newTestAPI(t, &stubEngine{err: errMock})

		resp := api.Get("/lookup?url=" + url.QueryEscape(testURL))

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestRedirectToURL(t *testing.T) {
	t.Run("redirects to the original url", func(t *testing.T) {
		api := newTestAPI(t, newMemoryEngine(t))
		created := decodeBody(t, api.Post("/shorten", map[string]any{"url": testURL}).Body.Bytes())

		resp := api.Get("/" + created.Short)

		assert.Equal(t, http.StatusMovedPermanently, resp.Code)
		assert.Equal(t, testURL, resp.Header().Get("Location"))
	})

	t.Run("returns 404 for unknown code", func(t *testing.T) {
		api := newTestAPI(t, newMemoryEngine(t))

		resp := api.Get("/zzzz")

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("maps storage errors to 503", func(t *testing.T) {
		api := newTestAPI(t, &stubEngine{err: shortener.ErrStorageUnavailable})

		resp := api.Get("/zzzz")

		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})
}
