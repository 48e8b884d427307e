package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shorturl/internal/shortener"
	"go.uber.org/zap"
)

// Shortener is the engine surface used by URLHandler.
type Shortener interface {
	Save(ctx context.Context, rawURL string) (*shortener.ShortURL, error)
	ShortOf(ctx context.Context, longURL string) (shortener.Code, error)
	LongOf(ctx context.Context, code shortener.Code) (string, error)
}

// URLHandler handles URL shortening operations.
type URLHandler struct {
	engine  Shortener
	baseURL string
	logger  *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(engine Shortener, baseURL string, logger *zap.Logger) *URLHandler {
	return &URLHandler{
		engine:  engine,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	shortURL, err := h.engine.Save(ctx, req.Body.URL)
	if err != nil {
		return nil, h.toHTTPError(err, "failed to save url")
	}

	h.logger.Info("url shortened",
		zap.String("code", string(shortURL.Code)),
		zap.String("url", shortURL.LongURL),
	)

	resp := &CreateShortURLResponse{}
	resp.Body = h.body(shortURL.Code, shortURL.LongURL)
	resp.Location = resp.Body.ShortURL

	return resp, nil
}

func (h *URLHandler) LookupShortURL(ctx context.Context, req *LookupRequest) (*LookupResponse, error) {
	code, err := h.engine.ShortOf(ctx, req.URL)
	if err != nil {
		return nil, h.toHTTPError(err, "failed to look up url")
	}

	return &LookupResponse{Body: h.body(code, shortener.Normalize(req.URL))}, nil
}

func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	longURL, err := h.engine.LongOf(ctx, shortener.Code(req.Code))
	if err != nil {
		return nil, h.toHTTPError(err, "failed to get url")
	}

	return &RedirectResponse{
		Status:   http.StatusMovedPermanently,
		Location: longURL,
	}, nil
}

func (h *URLHandler) body(code shortener.Code, longURL string) ShortURLBody {
	return ShortURLBody{
		Short:    string(code),
		ShortURL: fmt.Sprintf("%s/%s", h.baseURL, code),
		LongURL:  longURL,
	}
}

func (h *URLHandler) toHTTPError(err error, msg string) error {
	switch {
	case errors.Is(err, shortener.ErrNotFound):
		return huma.Error404NotFound("short url not found")
	case errors.Is(err, shortener.ErrInvalidURL):
		return huma.Error400BadRequest("url must not be empty")
	case errors.Is(err, shortener.ErrStorageUnavailable):
		h.logger.Error(msg, zap.Error(err))

		return huma.Error503ServiceUnavailable("storage unavailable")
	default:
		h.logger.Error(msg, zap.Error(err))

		return huma.Error500InternalServerError(msg)
	}
}
