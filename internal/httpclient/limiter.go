// internal/httpclient/limiter.go
//
// This file implements simple concurrency limiting for outbound HTTP
// requests, both globally and per-host, plus a per-host minimum-interval
// pacer. Together they help ensure that Cortex behaves politely when
// accessing remote servers (spec §5).
package httpclient

import (
	"context"
	"sync"
	"time"
)

// hostLimiter controls concurrent access to remote hosts.
type hostLimiter struct {
	globalCh chan struct{}
	maxPer   int

	mu      sync.Mutex
	perHost map[string]chan struct{}
}

// newHostLimiter constructs a limiter with the given global and
// per-host concurrency limits.
func newHostLimiter(maxHosts, maxPerHost int) *hostLimiter {
	if maxHosts <= 0 {
		maxHosts = 4
	}
	if maxPerHost <= 0 {
		maxPerHost = 4
	}
	return &hostLimiter{
		globalCh: make(chan struct{}, maxHosts),
		maxPer:   maxPerHost,
		perHost:  make(map[string]chan struct{}),
	}
}

// Acquire reserves a slot for the given host. It respects context
// cancellation.
func (l *hostLimiter) Acquire(ctx context.Context, host string) error {
	select {
	case l.globalCh <- struct{}{}:
		// acquired global slot
	case <-ctx.Done():
		return ctx.Err()
	}

	ch := l.getHostChan(host)

	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		<-l.globalCh // release global
		return ctx.Err()
	}
}

// Release frees the slot for the given host.
func (l *hostLimiter) Release(host string) {
	l.mu.Lock()
	ch, ok := l.perHost[host]
	l.mu.Unlock()

	if ok {
		select {
		case <-ch:
		default:
			// should not happen, but avoid panic
		}
	}

	select {
	case <-l.globalCh:
	default:
	}
}

func (l *hostLimiter) getHostChan(host string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.perHost[host]
	if !ok {
		ch = make(chan struct{}, l.maxPer)
		l.perHost[host] = ch
	}
	return ch
}

// paceLimiter enforces a minimum interval between requests to the same
// host, raised per-call by robots Crawl-delay (spec §5).
type paceLimiter struct {
	mu      sync.Mutex
	last    map[string]time.Time
	floor   time.Duration
}

func newPaceLimiter(floor time.Duration) *paceLimiter {
	return &paceLimiter{
		last:  make(map[string]time.Time),
		floor: floor,
	}
}

// Wait blocks until at least interval has elapsed since the previous
// request to host, or ctx is done.
func (p *paceLimiter) Wait(ctx context.Context, host string, interval time.Duration) error {
	if interval <= 0 {
		interval = p.floor
	}

	p.mu.Lock()
	prev, ok := p.last[host]
	p.mu.Unlock()

	if ok {
		elapsed := time.Since(prev)
		if wait := interval - elapsed; wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	p.mu.Lock()
	p.last[host] = time.Now()
	p.mu.Unlock()
	return nil
}
