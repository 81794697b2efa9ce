package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter spaces operations at least Interval apart, optionally stretching
// each gap by a random jitter. The first Wait never blocks.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	jitter   float64 // 0.0 to 1.0
	next     time.Time
}

// NewLimiter returns a limiter enforcing interval between operations.
// Jitter is clamped to [0, 1] and adds up to jitter*interval to each gap.
// An interval <= 0 yields a limiter that never blocks.
func NewLimiter(interval time.Duration, jitter float64) *Limiter {
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}
	return &Limiter{interval: interval, jitter: jitter}
}

// Interval reports the configured minimum gap.
func (l *Limiter) Interval() time.Duration {
	if l == nil {
		return 0
	}
	return l.interval
}

// Wait blocks until the next slot is due or ctx is done. Slots are reserved
// under the lock, so concurrent callers are serialised rather than bunched.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	l.next = slot.Add(l.gap())
	l.mu.Unlock()

	return Sleep(ctx, time.Until(slot))
}

// Done marks the end of an operation started after Wait. The next slot is
// pushed out to a full gap from now, so the spacing holds between the end of
// one operation and the start of the next however long the operation ran.
func (l *Limiter) Done() {
	if l == nil || l.interval <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if next := time.Now().Add(l.gap()); next.After(l.next) {
		l.next = next
	}
}

// gap must be called with the lock held.
func (l *Limiter) gap() time.Duration {
	if l.jitter == 0 {
		return l.interval
	}
	extra := time.Duration(rand.Float64() * l.jitter * float64(l.interval))
	return l.interval + extra
}

// Sleep pauses for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
