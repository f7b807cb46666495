package ratelimit

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/starskey-io/starskey"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
)

var _ out.RateLimiter = (*StarskeyStore)(nil)

// bucket is the persisted token bucket of one key.
type bucket struct {
	Tokens float64   `json:"tokens"`
	Last   time.Time `json:"last"`
}

// StarskeyStore keeps token buckets in a starskey database so limits
// survive restarts.
type StarskeyStore struct {
	db    *starskey.Starskey
	rps   float64
	burst int
	log   *log.Logger
	now   func() time.Time
}

// NewStarskeyStore opens (or creates) the database under dir.
func NewStarskeyStore(dir string, rps float64, burst int, logger *log.Logger) (*StarskeyStore, error) {
	if logger == nil {
		logger = log.Default()
	}
	db, err := starskey.Open(&starskey.Config{
		Permission:        0o755,
		Directory:         dir,
		FlushThreshold:    4 * 1024 * 1024,
		MaxLevel:          3,
		SizeFactor:        10,
		BloomFilter:       true,
		SuRF:              false,
		Logging:           false,
		Compression:       true,
		CompressionOption: starskey.SnappyCompression,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open rate limit store: %w", err)
	}

	logger.Info("Initialized rate limiter with Starskey backend", "path", dir, "rate", rps, "burst", burst)
	return &StarskeyStore{db: db, rps: rps, burst: burst, log: logger, now: time.Now}, nil
}

// Allow takes one token from the bucket of key.
func (s *StarskeyStore) Allow(key string) (bool, error) {
	var allowed bool

	err := s.db.Update(func(txn *starskey.Txn) error {
		now := s.now()
		k := []byte(key)

		b := bucket{Tokens: float64(s.burst), Last: now}
		if value, err := txn.Get(k); err == nil && value != nil {
			if err := json.Unmarshal(value, &b); err != nil {
				s.log.Debug("discarding corrupt bucket", "key", key, "error", err)
				b = bucket{Tokens: float64(s.burst), Last: now}
			}
		}

		if elapsed := now.Sub(b.Last).Seconds(); elapsed > 0 {
			b.Tokens = math.Min(float64(s.burst), b.Tokens+elapsed*s.rps)
		}
		b.Last = now

		if b.Tokens >= 1 {
			b.Tokens--
			allowed = true
		} else {
			s.log.Debug("rate limited", "key", key)
		}

		data, err := json.Marshal(b)
		if err != nil {
			return err
		}
		txn.Put(k, data)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit update: %w", err)
	}
	return allowed, nil
}

// Reset forgets the bucket of key.
func (s *StarskeyStore) Reset(key string) error {
	return s.db.Delete([]byte(key))
}

// Close flushes and closes the database.
func (s *StarskeyStore) Close() error {
	return s.db.Close()
}
