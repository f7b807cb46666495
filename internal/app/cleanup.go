package app

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
)

const (
	cleanupAttempts = 4
	cleanupBackoff  = 200 * time.Millisecond
)

type expiredCleaner interface {
	CleanupExpired(ctx context.Context, now time.Time) (sessions, verifications int64, err error)
}

type cleanupObserver interface {
	ObserveCleanup(sessions, verifications int64, err error)
}

// cleaner deletes expired sessions and verification rows. A busy database
// is retried with exponential backoff.
type cleaner struct {
	svc     expiredCleaner
	metrics cleanupObserver
	log     *log.Logger
	now     func() time.Time
	backoff time.Duration
}

func newCleaner(svc expiredCleaner, metrics cleanupObserver, logger *log.Logger) *cleaner {
	return &cleaner{svc: svc, metrics: metrics, log: logger, now: time.Now, backoff: cleanupBackoff}
}

func (c *cleaner) Run(ctx context.Context) error {
	sessions, verifications, err := c.sweep(ctx)
	if c.metrics != nil {
		c.metrics.ObserveCleanup(sessions, verifications, err)
	}
	if err != nil {
		return err
	}
	if sessions > 0 || verifications > 0 {
		c.log.Info("expired rows removed", "sessions", sessions, "verifications", verifications)
	}
	return nil
}

func (c *cleaner) sweep(ctx context.Context) (sessions, verifications int64, err error) {
	delay := c.backoff
	for attempt := 1; ; attempt++ {
		sessions, verifications, err = c.svc.CleanupExpired(ctx, c.now())
		if !errors.Is(err, out.ErrBusy) || attempt == cleanupAttempts {
			return sessions, verifications, err
		}
		c.log.Debug("database busy, retrying cleanup", "attempt", attempt, "delay", delay)
		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}
