package out

import "context"

// Pinger checks that a dependency answers. The health check probes it.
type Pinger interface {
	Ping(ctx context.Context) error
}
