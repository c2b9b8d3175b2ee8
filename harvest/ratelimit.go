package harvest

import (
	"context"
	"sync"

	"github.com/fwojciec/rulekit"
	"golang.org/x/time/rate"
)

var _ rulekit.HostLimiter = (*HostLimiter)(nil)

// HostLimiter throttles image loads to rps requests per second per host.
// Hosts are independent: waiting on one never delays loads from another.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewHostLimiter returns a limiter that allows rps requests per second to
// any single host, with no bursting.
func NewHostLimiter(rps float64) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until a request to host is permitted, or until ctx is
// canceled.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	return h.limiter(host).Wait(ctx)
}

// limiter returns the token bucket for host, creating it on first use.
func (h *HostLimiter) limiter(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(h.rps), 1)
		h.limiters[host] = l
	}
	return l
}
