// Package ratelimit guards the authentication endpoints with a fixed-window
// attempt counter. It is a best-effort, single-process brute-force brake, not
// a distributed rate limiter.
package ratelimit

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrRateLimited is returned by Check once a client exhausts its attempts
// for the current window.
var ErrRateLimited = errors.New("rate limit exceeded")

const (
	// DefaultWindow is the attempt window opened on a client's first attempt.
	DefaultWindow = 15 * time.Minute
	// DefaultMaxAttempts is the number of attempts allowed per window.
	DefaultMaxAttempts = 5
)

// Limiter counts authentication attempts per client within a fixed window.
// The first attempt opens a window; attempts beyond the maximum within that
// window are rejected until the window resets.
type Limiter struct {
	store       Store
	window      time.Duration
	maxAttempts int
	nowFunc     func() time.Time

	// mu serializes the read-modify-write cycle per Check call so that
	// concurrent attempts from the same client never lose increments.
	mu sync.Mutex
}

// Option defines a function type to modify the Limiter instance.
type Option func(*Limiter)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) Option {
	return func(l *Limiter) {
		l.nowFunc = now
	}
}

// New creates a Limiter over the given store. Non-positive window or
// maxAttempts fall back to the defaults.
func New(store Store, window time.Duration, maxAttempts int, options ...Option) *Limiter {
	l := &Limiter{
		store:       store,
		window:      window,
		maxAttempts: maxAttempts,
		nowFunc:     time.Now,
	}
	if l.window <= 0 {
		l.window = DefaultWindow
	}
	if l.maxAttempts <= 0 {
		l.maxAttempts = DefaultMaxAttempts
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Check records one attempt for clientID. It returns a nil error while the
// client is within its allowance. Once the attempt count exceeds the maximum
// it returns ErrRateLimited together with how long the client must wait for
// the window to reset. A window that has elapsed restarts with count 1.
// Stale entries for unrelated clients are swept opportunistically on each
// call to bound memory.
func (l *Limiter) Check(clientID string) (retryAfter time.Duration, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	l.store.Sweep(now)

	entry, ok := l.store.Get(clientID)
	if !ok || now.After(entry.WindowResetAt) {
		l.store.Put(clientID, Entry{Count: 1, WindowResetAt: now.Add(l.window)})
		return 0, nil
	}

	entry.Count++
	l.store.Put(clientID, entry)

	if entry.Count > l.maxAttempts {
		return entry.WindowResetAt.Sub(now), ErrRateLimited
	}
	return 0, nil
}
