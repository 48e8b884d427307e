package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shorturl/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimiter returns a Huma middleware that limits requests per client IP,
// using a separate limiter for reads and writes.
func RateLimiter(
	api huma.API,
	limiters ratelimit.Limiters,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		class := ratelimit.ClassOf(ctx.Method())
		ip := clientIP(ctx)

		decision, err := limiters.For(class).Allow(ctx.Context(), string(class)+":"+ip)
		if err != nil {
			logger.Error("rate limit check failed",
				zap.String("class", string(class)),
				zap.Error(err),
			)
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if decision.Limit > 0 {
			ctx.SetHeader("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
			ctx.SetHeader("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		}

		if !decision.Allowed {
			logger.Warn("rate limit exceeded",
				zap.String("class", string(class)),
				zap.String("client_ip", ip),
			)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")

			return
		}

		next(ctx)
	}
}

// clientIP extracts the client IP from the request, considering proxies.
func clientIP(ctx huma.Context) string {
	// X-Forwarded-For may carry a chain; the first entry is the client.
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	addr := ctx.RemoteAddr()

	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return ip
}
