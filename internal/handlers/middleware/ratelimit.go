package middleware

import (
	"net/http"
	"time"

	"github.com/nkurilenko/walletd/internal/handlers/render"
	"github.com/nkurilenko/walletd/internal/handlers/userctx"
	"github.com/nkurilenko/walletd/internal/ratelimit"
)

type warnLogger interface {
	Warn(msg string, args ...any)
}

// RateLimitMiddleware admits at most max requests per authenticated user per
// window. Must run after AuthMiddleware. A limiter outage fails open: rate
// limiting protects capacity, it must not take the wallet down with it.
func RateLimitMiddleware(limiter ratelimit.Limiter, scope string, max int, window time.Duration, l warnLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userctx.FromContext(r.Context())
			if !ok {
				render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
				return
			}

			allowed, err := limiter.Allow(r.Context(), scope+":"+user.ID.String(), max, window)
			if err != nil {
				l.Warn("Rate limiter unavailable, admitting request", "error", err)
				allowed = true
			}

			if !allowed {
				render.ServiceError(w, "Too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
