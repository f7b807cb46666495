package domain

import "time"

// CronEntry represents a registered cron job.
type CronEntry struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	LastRun  time.Time `json:"lastRun"`
	NextRun  time.Time `json:"nextRun"`
	Running  bool      `json:"running"`
}
