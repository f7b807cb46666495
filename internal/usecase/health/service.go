// Package health implements the dependency health check use case.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
)

const (
	// maxConcurrentProbes limits the number of probes in flight.
	maxConcurrentProbes = 10

	// DefaultTimeout bounds a single probe.
	DefaultTimeout = 2 * time.Second
)

// Service implements the HealthService interface.
type Service struct {
	probes  map[string]out.Pinger
	timeout time.Duration
	log     *log.Logger
	now     func() time.Time
}

// NewService creates a new health service. A zero timeout uses
// DefaultTimeout.
func NewService(probes map[string]out.Pinger, timeout time.Duration, logger *log.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		probes:  probes,
		timeout: timeout,
		log:     logger,
		now:     time.Now,
	}
}

// CheckComponent probes a single dependency.
func (s *Service) CheckComponent(ctx context.Context, name string, p out.Pinger) *domain.ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.now()
	err := p.Ping(ctx)
	health := &domain.ComponentHealth{
		Healthy:   err == nil,
		LatencyMs: s.now().Sub(start).Milliseconds(),
	}
	if err != nil {
		health.Error = err.Error()
		s.log.Warn("health probe failed", "component", name, "err", err)
	}
	return health
}

// Check probes all components concurrently.
func (s *Service) Check(ctx context.Context) *domain.HealthReport {
	report := &domain.HealthReport{
		Healthy:    true,
		Components: make(map[string]*domain.ComponentHealth, len(s.probes)),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentProbes)

	for name, p := range s.probes {
		wg.Add(1)
		go func(name string, p out.Pinger) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			health := s.CheckComponent(ctx, name, p)
			mu.Lock()
			report.Components[name] = health
			if !health.Healthy {
				report.Healthy = false
			}
			mu.Unlock()
		}(name, p)
	}

	wg.Wait()

	s.log.Debug("health check complete", "components", len(report.Components), "healthy", report.Healthy)
	return report
}
