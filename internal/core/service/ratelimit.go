package service

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/pgpauth-go/pkg/cmap"
)

const (
	// DefaultLimiterIdleTTL is how long a client's limiter survives without
	// requests. A bucket idle for longer than burst/rate is full again, so
	// dropping it does not change what the client may send.
	DefaultLimiterIdleTTL = 10 * time.Minute

	// DefaultLimiterSweepInterval is the default interval between idle sweeps.
	DefaultLimiterSweepInterval = time.Minute
)

// RateLimiterConfig configures a RateLimiterRegistry.
type RateLimiterConfig struct {
	// IdleTTL is the idle time after which a limiter is dropped
	// (default: 10m).
	IdleTTL time.Duration

	// SweepInterval is the interval between idle sweeps. Zero or negative
	// disables the background sweeper; Sweep can still be called directly.
	SweepInterval time.Duration

	// Clock supplies the current time (default: time.Now).
	Clock func() time.Time
}

// DefaultRateLimiterConfig returns default configuration.
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		IdleTTL:       DefaultLimiterIdleTTL,
		SweepInterval: DefaultLimiterSweepInterval,
		Clock:         time.Now,
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

// RateLimiterRegistry manages one token bucket per client key. Client keys
// are remote addresses, an unbounded set, so idle limiters are swept.
type RateLimiterRegistry struct {
	limiters *cmap.Map[*limiterEntry]
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	clock    func() time.Time

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewRateLimiterRegistry creates a registry whose limiters allow perSecond
// requests per second with a burst of the same size. A nil config means
// DefaultRateLimiterConfig; call Close to stop the sweeper.
func NewRateLimiterRegistry(perSecond int, config *RateLimiterConfig) *RateLimiterRegistry {
	if config == nil {
		config = DefaultRateLimiterConfig()
	}

	r := &RateLimiterRegistry{
		limiters: cmap.New[*limiterEntry](),
		limit:    rate.Limit(perSecond),
		burst:    perSecond,
		idleTTL:  config.IdleTTL,
		clock:    config.Clock,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	if r.idleTTL <= 0 {
		r.idleTTL = DefaultLimiterIdleTTL
	}
	if r.clock == nil {
		r.clock = time.Now
	}

	if config.SweepInterval > 0 {
		go r.sweepLoop(config.SweepInterval)
	} else {
		close(r.doneCh)
	}
	return r
}

// Allow reports whether one more request from key is allowed now.
func (r *RateLimiterRegistry) Allow(key string) bool {
	return r.GetOrCreate(key).AllowN(r.clock(), 1)
}

// GetOrCreate returns the limiter for key, creating it if needed, and
// marks key as seen.
func (r *RateLimiterRegistry) GetOrCreate(key string) *rate.Limiter {
	now := r.clock().UnixNano()
	e := r.limiters.Compute(key, func(old *limiterEntry, exists bool) (*limiterEntry, bool) {
		if !exists {
			old = &limiterEntry{limiter: rate.NewLimiter(r.limit, r.burst)}
		}
		// Under the shard lock, so a concurrent Sweep sees the new time.
		old.lastSeen.Store(now)
		return old, true
	})
	return e.limiter
}

// Sweep drops limiters idle for longer than the idle TTL and reports how
// many were dropped.
func (r *RateLimiterRegistry) Sweep() int {
	cutoff := r.clock().Add(-r.idleTTL).UnixNano()
	return r.limiters.DeleteIf(func(_ string, e *limiterEntry) bool {
		return e.lastSeen.Load() < cutoff
	})
}

// Len returns the number of tracked clients.
func (r *RateLimiterRegistry) Len() int {
	return r.limiters.Count()
}

// Delete removes the rate limiter for key.
func (r *RateLimiterRegistry) Delete(key string) {
	r.limiters.Delete(key)
}

// Clear removes all rate limiters.
func (r *RateLimiterRegistry) Clear() {
	r.limiters.Clear()
}

// Close stops the sweeper. The registry stays usable.
func (r *RateLimiterRegistry) Close() error {
	r.closeOnce.Do(func() {
		close(r.stopCh)
		<-r.doneCh
	})
	return nil
}

func (r *RateLimiterRegistry) sweepLoop(interval time.Duration) {
	defer close(r.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-r.stopCh:
			return
		}
	}
}
