package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/RodrigoCastroMoura/trackerbot/internal/audit"
	apperrors "github.com/RodrigoCastroMoura/trackerbot/internal/errors"
)

// Limiter records one request for key and reports whether it is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, resetAt time.Time)
}

// IPRateLimitMiddleware limits requests per client address. Run it after
// chi's RealIP so RemoteAddr carries the forwarded client address.
type IPRateLimitMiddleware struct {
	limiter Limiter
	keyFunc func(ip string) string
}

func NewIPRateLimitMiddleware(limiter Limiter, keyFunc func(ip string) string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		keyFunc: keyFunc,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, resetAt := m.limiter.Allow(r.Context(), m.keyFunc(clientHost(r.RemoteAddr)))

		if !allowed {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Details: map[string]interface{}{"path": r.URL.Path},
			})
			w.Header().Set("Retry-After", fmt.Sprintf("%d", RetryAfterSeconds(resetAt)))
			writeError(w, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RetryAfterSeconds rounds the wait until resetAt up to whole seconds.
func RetryAfterSeconds(resetAt time.Time) int {
	secondsLeft := int(time.Until(resetAt).Seconds()) + 1
	if secondsLeft < 1 {
		return 1
	}
	return secondsLeft
}

func clientHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
