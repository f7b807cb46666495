package ratelimit

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
)

// Backends understood by NewStore.
const (
	BackendMemory   = "memory"
	BackendStarskey = "starskey"
)

// Options select and size a limiter store.
type Options struct {
	Backend string
	// Dir holds the starskey files. Unused by the memory backend.
	Dir   string
	RPS   float64
	Burst int
}

// NewStore creates a RateLimiter for the configured backend. Stores that
// hold files also implement io.Closer.
func NewStore(opts Options, logger *log.Logger) (out.RateLimiter, error) {
	if opts.RPS <= 0 || opts.Burst <= 0 {
		return nil, fmt.Errorf("rate limit needs positive rps and burst, got %v/%d", opts.RPS, opts.Burst)
	}
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemoryStore(opts.RPS, opts.Burst, logger), nil
	case BackendStarskey:
		if opts.Dir == "" {
			return nil, fmt.Errorf("starskey rate limit backend needs a directory")
		}
		return NewStarskeyStore(opts.Dir, opts.RPS, opts.Burst, logger)
	default:
		return nil, fmt.Errorf("unknown rate limit backend: %s", opts.Backend)
	}
}
