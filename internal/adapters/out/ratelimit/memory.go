// Package ratelimit provides keyed rate limiter stores.
package ratelimit

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
)

// DefaultIdleTTL is how long an untouched key keeps its limiter.
const DefaultIdleTTL = 3 * time.Minute

var _ out.RateLimiter = (*MemoryStore)(nil)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryStore is an in-memory keyed limiter on golang.org/x/time/rate.
// Each key gets its own token bucket. Keys idle for longer than the TTL
// are dropped on the next sweep.
type MemoryStore struct {
	visitors  map[string]*visitor
	mu        sync.Mutex
	rps       float64
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	log       *log.Logger
	now       func() time.Time
}

// NewMemoryStore creates a new in-memory rate limiter store.
func NewMemoryStore(rps float64, burst int, logger *log.Logger) *MemoryStore {
	if logger == nil {
		logger = log.Default()
	}
	return &MemoryStore{
		visitors: make(map[string]*visitor),
		rps:      rps,
		burst:    burst,
		idleTTL:  DefaultIdleTTL,
		log:      logger,
		now:      time.Now,
	}
}

// Allow reports whether a request identified by key may proceed. It never
// returns an error; the signature matches echo's RateLimiterStore.
func (s *MemoryStore) Allow(key string) (bool, error) {
	return s.AllowN(key, 1), nil
}

// AllowN reports whether n events identified by key may happen now.
func (s *MemoryStore) AllowN(key string, n int) bool {
	now := s.now()

	s.mu.Lock()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	if now.Sub(s.lastSweep) > s.idleTTL {
		s.sweep(now)
	}
	s.mu.Unlock()

	allowed := v.limiter.AllowN(now, n)
	if !allowed {
		s.log.Debug("rate limited", "key", key)
	}
	return allowed
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

// sweep must be called with mu held.
func (s *MemoryStore) sweep(now time.Time) {
	for key, v := range s.visitors {
		if now.Sub(v.lastSeen) > s.idleTTL {
			delete(s.visitors, key)
		}
	}
	s.lastSweep = now
}
