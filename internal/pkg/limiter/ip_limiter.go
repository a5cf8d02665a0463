/*
Package limiter throttles clients per remote address with token buckets.

Idle buckets (refilled to their burst size) are swept periodically so the map
does not grow with every address ever seen.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"provchat/internal/pkg/errs"
	"provchat/internal/pkg/logx"
	"provchat/internal/pkg/resp"
)

const sweepInterval = 3 * time.Minute

// IPRateLimiter keeps one token bucket per client address.
type IPRateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter

	r rate.Limit
	b int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter returns a limiter allowing r events per second with bursts
// of b per address, and starts its sweeper. Call Stop to end the sweeper.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		stop:   make(chan struct{}),
	}

	go i.sweepLoop()

	return i
}

// GetLimiter returns the bucket for ip, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	l, ok := i.limits[ip]
	i.mu.RUnlock()
	if ok {
		return l
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if l, ok = i.limits[ip]; !ok {
		l = rate.NewLimiter(i.r, i.b)
		i.limits[ip] = l
	}
	return l
}

// AllowRequest reports whether the request's remote address still has a token.
func (i *IPRateLimiter) AllowRequest(r *http.Request) bool {
	return i.GetLimiter(ClientIP(r)).Allow()
}

// Len returns the number of tracked addresses.
func (i *IPRateLimiter) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.limits)
}

// Stop ends the sweeper goroutine. It is safe to call more than once.
func (i *IPRateLimiter) Stop() {
	i.stopOnce.Do(func() { close(i.stop) })
}

func (i *IPRateLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			removed, remaining := i.sweep(now)
			logx.Debug("Rate limiter sweep finished", "removed", removed, "remaining", remaining)
		case <-i.stop:
			return
		}
	}
}

// sweep drops buckets that are full at now.
func (i *IPRateLimiter) sweep(now time.Time) (removed, remaining int) {
	i.mu.Lock()
	defer i.mu.Unlock()

	for ip, l := range i.limits {
		if l.TokensAt(now) >= float64(l.Burst()) {
			delete(i.limits, ip)
			removed++
		}
	}
	return removed, len(i.limits)
}

// Middleware rejects requests over the limit with a 429 JSON error.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.AllowRequest(r) {
			zerolog.Ctx(r.Context()).Warn().
				Str("path", r.URL.Path).
				Msg("Request rejected: rate limit exceeded.")
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the host from r.RemoteAddr. chi's RealIP middleware may
// already have replaced it with a bare address.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if ip == "" {
		return "unknown_ip"
	}
	return ip
}
