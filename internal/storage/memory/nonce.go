package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/pgpauth-go/internal/core/domain"
	"github.com/yndnr/pgpauth-go/internal/telemetry/logger"
	"github.com/yndnr/pgpauth-go/pkg/cmap"
)

const (
	// DefaultCapacity is the default maximum number of live replay keys.
	DefaultCapacity = 1_000_000

	// DefaultSweepInterval is the default interval between expiry sweeps.
	DefaultSweepInterval = time.Minute
)

// NonceStoreConfig configures a NonceStore.
type NonceStoreConfig struct {
	// Capacity bounds the number of stored keys. Zero or negative means
	// DefaultCapacity.
	Capacity int

	// SweepInterval is the interval between expiry sweeps. Zero or
	// negative disables the background sweeper.
	SweepInterval time.Duration

	// Clock returns the current time. Nil means time.Now.
	Clock func() time.Time

	Logger logger.Logger
}

// DefaultNonceStoreConfig returns the default configuration.
func DefaultNonceStoreConfig() *NonceStoreConfig {
	return &NonceStoreConfig{
		Capacity:      DefaultCapacity,
		SweepInterval: DefaultSweepInterval,
		Clock:         time.Now,
	}
}

// NonceStore is a bounded replay cache with per-key expiry.
type NonceStore struct {
	entries  *cmap.Map[time.Time]
	size     atomic.Int64
	capacity int64
	clock    func() time.Time
	logger   logger.Logger

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewNonceStore creates a store and starts its sweeper.
func NewNonceStore(cfg *NonceStoreConfig) *NonceStore {
	if cfg == nil {
		cfg = DefaultNonceStoreConfig()
	}

	s := &NonceStore{
		entries:  cmap.New[time.Time](),
		capacity: int64(cfg.Capacity),
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	if s.capacity <= 0 {
		s.capacity = DefaultCapacity
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}

	if cfg.SweepInterval > 0 {
		go s.sweepLoop(cfg.SweepInterval)
	} else {
		close(s.doneCh)
	}

	return s
}

// Remember records key until now+ttl and reports whether it was absent
// (or expired). At capacity expired entries are swept once; if none were
// expired a new key fails with domain.ErrStorageError.
func (s *NonceStore) Remember(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fresh, full := s.remember(key, ttl)
	if full && s.Sweep() > 0 {
		fresh, full = s.remember(key, ttl)
	}
	if full {
		s.logger.Warn("replay cache full", "capacity", s.capacity)
		return false, domain.ErrStorageError.WithDetails("replay cache at capacity")
	}
	return fresh, nil
}

func (s *NonceStore) remember(key string, ttl time.Duration) (fresh, full bool) {
	now := s.clock()
	s.entries.Compute(key, func(old time.Time, exists bool) (time.Time, bool) {
		if exists && now.Before(old) {
			return old, true
		}
		if !exists {
			if s.size.Add(1) > s.capacity {
				s.size.Add(-1)
				full = true
				return old, false
			}
		}
		fresh = true
		return now.Add(ttl), true
	})
	return fresh, full
}

// Sweep removes expired entries and reports how many were removed.
func (s *NonceStore) Sweep() int {
	now := s.clock()
	removed := s.entries.DeleteIf(func(_ string, expires time.Time) bool {
		return !now.Before(expires)
	})
	s.size.Add(int64(-removed))
	return removed
}

// Len returns the number of stored entries, including expired ones not yet
// swept.
func (s *NonceStore) Len() int {
	return int(s.size.Load())
}

// Close stops the sweeper. The store stays usable.
func (s *NonceStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
	})
	return nil
}

func (s *NonceStore) sweepLoop(interval time.Duration) {
	defer close(s.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("replay cache swept", "removed", n, "remaining", s.Len())
			}
		case <-s.stopCh:
			return
		}
	}
}
