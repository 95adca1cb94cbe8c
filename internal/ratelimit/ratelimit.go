// internal/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Result reports a limiter decision. RetryAfter is only meaningful when
// Allowed is false.
type Result struct {
	Allowed    bool
	RetryAfter int // seconds until the window resets
}

// Limiter gates request volume for one endpoint, keyed by caller identity.
type Limiter interface {
	Check(ctx context.Context, identity string) (Result, error)
}

const window = 60 * time.Second

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a fixed-window limiter held in process memory. State is
// scoped to one instance and resets on restart, so limits are approximate
// under horizontal scaling.
type MemoryLimiter struct {
	mu      sync.Mutex
	max     int
	entries map[string]*entry
	now     func() time.Time
}

// NewMemoryLimiter creates a limiter allowing max requests per identity per
// 60-second window.
func NewMemoryLimiter(max int) *MemoryLimiter {
	return &MemoryLimiter{
		max:     max,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Check records one request for identity and reports whether it is allowed.
// After the window elapses the counter restarts unconditionally.
func (l *MemoryLimiter) Check(_ context.Context, identity string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[identity]
	if !ok || now.After(e.resetAt) {
		l.entries[identity] = &entry{count: 1, resetAt: now.Add(window)}
		return Result{Allowed: true}, nil
	}

	if e.count >= l.max {
		retry := int(math.Ceil(e.resetAt.Sub(now).Seconds()))
		return Result{Allowed: false, RetryAfter: retry}, nil
	}

	e.count++
	return Result{Allowed: true}, nil
}
