package out

// RateLimiter defines the contract for keyed rate limiting.
// The signature matches echo's middleware.RateLimiterStore so one
// implementation serves both the router and direct callers.
type RateLimiter interface {
	// Allow reports whether a request identified by key may proceed.
	// Key is typically the client IP.
	Allow(key string) (bool, error)
}
