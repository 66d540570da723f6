// Package ratelimit implements the per-client cooldown gate shared by the
// form pipelines and the download endpoint.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Categories keep each pipeline on its own cooldown.
const (
	CategoryApplication = "application"
	CategoryContact     = "contact"
	CategoryDownload    = "download"
)

// ErrStoreUnavailable is returned when the backing store cannot be reached.
var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// Store holds the last permitted attempt per key. Admit must be atomic per key.
// Entries only leave the store by expiring.
type Store interface {
	// Admit records now for key and returns true when the key is absent or its
	// stored time is at least cooldown old. Otherwise it returns false and the
	// remaining wait without touching the stored time.
	Admit(ctx context.Context, key string, now time.Time, cooldown time.Duration) (bool, time.Duration, error)
}

// Decision is the result of a cooldown check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter gates attempts per identity key using a Store and an injectable clock.
type Limiter struct {
	store Store
	now   func() time.Time
}

// NewLimiter builds a Limiter. A nil clock defaults to time.Now.
func NewLimiter(store Store, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{store: store, now: now}
}

// Key derives the identity key for a client address and category.
func Key(category, clientIP string) string {
	ip := strings.TrimSpace(clientIP)
	if ip == "" {
		ip = "unknown"
	}
	return ip + "|" + category
}

// Allow reports whether key may proceed, recording the attempt when it may.
func (l *Limiter) Allow(ctx context.Context, key string, cooldown time.Duration) (bool, error) {
	d, err := l.Check(ctx, key, cooldown)
	return d.Allowed, err
}

// Check is Allow with the remaining wait on denial.
func (l *Limiter) Check(ctx context.Context, key string, cooldown time.Duration) (Decision, error) {
	if l == nil || l.store == nil || cooldown <= 0 {
		return Decision{Allowed: true}, nil
	}
	ok, wait, err := l.store.Admit(ctx, key, l.now(), cooldown)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if ok {
		return Decision{Allowed: true}, nil
	}
	if wait <= 0 {
		wait = time.Second
	}
	return Decision{Allowed: false, RetryAfter: wait}, nil
}
