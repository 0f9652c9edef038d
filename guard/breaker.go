package guard

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/vecfield/resource"
)

// DefaultUnsetPercent is the share of the limit usage must fall below before a
// tripped MemoryBreaker resets.
const DefaultUnsetPercent = 75

// MemoryBreaker trips when the vector memory tracked by a resource.Controller
// exceeds its limit.
type MemoryBreaker struct {
	rc           *resource.Controller
	limit        int64
	unsetPercent int64
	tripped      atomic.Bool
	logger       *slog.Logger
	warn         *rate.Limiter
	mu           sync.Mutex // serializes Refresh
}

// BreakerOption configures a MemoryBreaker.
type BreakerOption func(*MemoryBreaker)

// WithLimit overrides the limit taken from the controller.
func WithLimit(bytes int64) BreakerOption {
	return func(b *MemoryBreaker) { b.limit = bytes }
}

// WithUnsetPercent sets the reset threshold as a percentage of the limit.
func WithUnsetPercent(p int) BreakerOption {
	return func(b *MemoryBreaker) {
		if p > 0 && p <= 100 {
			b.unsetPercent = int64(p)
		}
	}
}

// WithBreakerLogger sets the logger used for trip warnings.
func WithBreakerLogger(l *slog.Logger) BreakerOption {
	return func(b *MemoryBreaker) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewMemoryBreaker creates a breaker watching rc. Without a limit (neither on
// the controller nor via WithLimit) the breaker never trips.
func NewMemoryBreaker(rc *resource.Controller, opts ...BreakerOption) *MemoryBreaker {
	b := &MemoryBreaker{
		rc:           rc,
		limit:        rc.Limit(),
		unsetPercent: DefaultUnsetPercent,
		logger:       slog.New(slog.DiscardHandler),
		warn:         rate.NewLimiter(rate.Every(time.Minute), 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Tripped implements CircuitBreaker.
func (b *MemoryBreaker) Tripped() bool {
	return b.tripped.Load()
}

// Refresh re-evaluates the breaker against the current memory usage and
// returns the new state.
func (b *MemoryBreaker) Refresh() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit <= 0 {
		b.tripped.Store(false)
		return false
	}

	usage := b.rc.MemoryUsage()
	switch {
	case usage > b.limit:
		if !b.tripped.Swap(true) || b.warn.Allow() {
			b.logger.Warn("vector memory circuit breaker tripped",
				"usage_bytes", usage,
				"limit_bytes", b.limit,
			)
		}
	case b.tripped.Load() && usage < b.limit*b.unsetPercent/100:
		b.tripped.Store(false)
		b.logger.Info("vector memory circuit breaker reset",
			"usage_bytes", usage,
			"limit_bytes", b.limit,
		)
	}
	return b.tripped.Load()
}

// Run refreshes the breaker every interval until ctx is done.
func (b *MemoryBreaker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.Refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Refresh()
		}
	}
}
