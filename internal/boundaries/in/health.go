package in

import (
	"context"

	"github.com/eci4ever/bizadmin/internal/domain"
)

// HealthService defines the contract for dependency health checks.
type HealthService interface {
	// Check probes every registered component.
	Check(ctx context.Context) *domain.HealthReport
}
