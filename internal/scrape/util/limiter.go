package util

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter keeps one token bucket per host. A host's rate can only be
// lowered after creation, e.g. to honor a robots.txt Crawl-delay.
type HostLimiter struct {
	mu    sync.Mutex
	hosts map[string]*rate.Limiter
	every rate.Limit
	burst int
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		hosts: make(map[string]*rate.Limiter),
		every: rate.Limit(reqPerSec),
		burst: burst,
	}
}

func hostKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "_"
	}
	return strings.ToLower(u.Host)
}

func (hl *HostLimiter) forHost(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	lim, ok := hl.hosts[host]
	if !ok {
		lim = rate.NewLimiter(hl.every, hl.burst)
		hl.hosts[host] = lim
	}
	return lim
}

// WaitURL blocks until a request to raw's host is allowed.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	return hl.forHost(hostKey(raw)).Wait(ctx)
}

// SlowDown caps raw's host at one request per delay. Faster delays than the
// current rate are ignored.
func (hl *HostLimiter) SlowDown(raw string, delay time.Duration) {
	if delay <= 0 {
		return
	}
	lim := hl.forHost(hostKey(raw))
	if capped := rate.Every(delay); capped < lim.Limit() {
		lim.SetLimit(capped)
		lim.SetBurst(1)
	}
}

// Limit reports the current rate for raw's host.
func (hl *HostLimiter) Limit(raw string) rate.Limit {
	return hl.forHost(hostKey(raw)).Limit()
}
