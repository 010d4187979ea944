// Package health probes the search backend and the cache concurrently.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/discover/internal/logger"
)

// DefaultTimeout bounds a single probe when New is given a non-positive timeout.
const DefaultTimeout = 2 * time.Second

// Status is the aggregated health of the service.
type Status string

// Aggregated statuses.
const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"
	Unhealthy Status = "error"
)

// CheckResult is the outcome of one probe.
type CheckResult string

// Probe outcomes.
const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Check describes one probed component.
type Check struct {
	Result  CheckResult
	Latency time.Duration
	Err     error
}

// Report is the result of Service.Check, keyed by component name.
type Report struct {
	Status Status
	Checks map[string]Check
}

// Service runs health probes.
type Service struct {
	components []Component
	timeout    time.Duration
}

// New creates a Service. Components without a Pinger are skipped, so a
// disabled cache can be passed as a nil interface.
func New(timeout time.Duration, components ...Component) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	active := make([]Component, 0, len(components))
	for _, c := range components {
		if c.Pinger != nil {
			active = append(active, c)
		}
	}
	return &Service{components: active, timeout: timeout}
}

// Check pings every component in parallel, each under its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = make(map[string]Check, len(s.components))
		g      errgroup.Group
	)
	for _, c := range s.components {
		g.Go(func() error {
			check := s.probe(ctx, c)
			mu.Lock()
			checks[c.Name] = check
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	for _, c := range s.components {
		if checks[c.Name].Result == CheckOK {
			continue
		}
		if c.Critical {
			status = Unhealthy
			break
		}
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func (s *Service) probe(ctx context.Context, c Component) Check {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := c.Pinger.Ping(ctx)
	check := Check{Result: CheckOK, Latency: time.Since(start), Err: err}
	if err != nil {
		check.Result = CheckError
		logger.FromContext(ctx).Warn("Health probe failed",
			zap.String("component", c.Name),
			zap.Bool("critical", c.Critical),
			zap.Duration("latency", check.Latency),
			zap.Error(err),
		)
	}
	return check
}
