package server

import (
	"fmt"
	"sync"
	"time"
)

// Limit kinds reported in LimitError.Type.
const (
	LimitMinute    = "minute"
	LimitHour      = "hour"
	LimitDayCount  = "requests"
	LimitDayVolume = "data"
)

// RateLimiter tracks per-client request counts in fixed windows.
type RateLimiter struct {
	mu sync.Mutex

	perMinute int
	perHour   int
	perDay    int
	bytesDay  int64

	clients map[string]*clientUsage
	now     func() time.Time
}

type window struct {
	start time.Time
	count int64
}

// roll resets the window when size has elapsed since it started.
func (w *window) roll(now time.Time, size time.Duration) {
	if w.start.IsZero() || now.Sub(w.start) >= size {
		w.start = now
		w.count = 0
	}
}

func (w *window) retryAfter(now time.Time, size time.Duration) time.Duration {
	return w.start.Add(size).Sub(now)
}

type clientUsage struct {
	minute window
	hour   window
	day    window
	bytes  int64
}

// Usage is a snapshot of one client's counters.
type Usage struct {
	Minute int64
	Hour   int64
	Day    int64
	Bytes  int64
}

// NewRateLimiter creates a limiter. Non-positive limits are not enforced.
func NewRateLimiter(perMinute, perHour, perDay int, bytesPerDay int64) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		perHour:   perHour,
		perDay:    perDay,
		bytesDay:  bytesPerDay,
		clients:   make(map[string]*clientUsage),
		now:       time.Now,
	}
}

// Allow records a request of size bytes for client, or returns a *LimitError
// without recording it.
func (rl *RateLimiter) Allow(client string, size int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	u, ok := rl.clients[client]
	if !ok {
		u = &clientUsage{}
		rl.clients[client] = u
	}

	u.minute.roll(now, time.Minute)
	u.hour.roll(now, time.Hour)
	if u.day.start.IsZero() || now.Sub(u.day.start) >= 24*time.Hour {
		u.day = window{start: now}
		u.bytes = 0
	}

	switch {
	case rl.perMinute > 0 && u.minute.count >= int64(rl.perMinute):
		return &LimitError{Type: LimitMinute, Limit: int64(rl.perMinute), RetryAfter: u.minute.retryAfter(now, time.Minute)}
	case rl.perHour > 0 && u.hour.count >= int64(rl.perHour):
		return &LimitError{Type: LimitHour, Limit: int64(rl.perHour), RetryAfter: u.hour.retryAfter(now, time.Hour)}
	case rl.perDay > 0 && u.day.count >= int64(rl.perDay):
		return &LimitError{Type: LimitDayCount, Limit: int64(rl.perDay), RetryAfter: u.day.retryAfter(now, 24*time.Hour)}
	case rl.bytesDay > 0 && u.bytes+size > rl.bytesDay:
		return &LimitError{Type: LimitDayVolume, Limit: rl.bytesDay, RetryAfter: u.day.retryAfter(now, 24*time.Hour)}
	}

	u.minute.count++
	u.hour.count++
	u.day.count++
	u.bytes += size
	return nil
}

// Usage returns the current counters for client.
func (rl *RateLimiter) Usage(client string) Usage {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	u, ok := rl.clients[client]
	if !ok {
		return Usage{}
	}
	return Usage{Minute: u.minute.count, Hour: u.hour.count, Day: u.day.count, Bytes: u.bytes}
}

// LimitError reports an exceeded limit.
type LimitError struct {
	Type       string
	Limit      int64
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter.Round(time.Second))
}
