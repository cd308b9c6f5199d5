package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps fixed windows in process memory. It is safe for concurrent use; every
// Admit is atomic per identifier. Counters are not shared between replicas.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	logger  *slog.Logger
}

// NewMemoryLimiter creates an empty in-memory limiter.
func NewMemoryLimiter(logger *slog.Logger) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		logger:  logger,
	}
}

// Admit records a request for identifier and reports whether it fits in the current window.
func (m *MemoryLimiter) Admit(
	_ context.Context,
	identifier string,
	windowSize time.Duration,
	limit int,
	now time.Time,
) (Decision, error) {
	if err := validateArgs(windowSize, limit); err != nil {
		return Decision{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[identifier]
	if !ok || !now.Before(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(windowSize)}
		m.windows[identifier] = w
		return Decision{Admitted: true, Limit: limit, Remaining: limit - 1, ResetAt: w.resetAt}, nil
	}

	if w.count >= limit {
		return Decision{Admitted: false, Limit: limit, Remaining: 0, ResetAt: w.resetAt}, nil
	}

	w.count++
	return Decision{Admitted: true, Limit: limit, Remaining: limit - w.count, ResetAt: w.resetAt}, nil
}

// Sweep removes every window that has elapsed at now and returns how many were removed.
func (m *MemoryLimiter) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identifiers.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// Run sweeps elapsed windows every interval until ctx is cancelled.
func (m *MemoryLimiter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if removed := m.Sweep(now); removed > 0 && m.logger != nil {
				m.logger.Debug("rate limit windows swept", slog.Int("removed", removed))
			}
		}
	}
}
