package discover

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/discover/internal/usecase/health"
)

// HealthStatus is the aggregated health of the client's dependencies.
// Status is "ok", "degraded" (cache down) or "error" (backend down).
type HealthStatus struct {
	Status     string
	Components []ComponentStatus
}

// ComponentStatus reports one dependency probe.
type ComponentStatus struct {
	Name    string
	OK      bool
	Latency time.Duration
	Err     error
}

// Healthy reports whether every component answered.
func (h HealthStatus) Healthy() bool { return h.Status == string(healthuc.Healthy) }

// Component returns the probe named name, if it ran.
func (h HealthStatus) Component(name string) (ComponentStatus, bool) {
	for _, c := range h.Components {
		if c.Name == name {
			return c, true
		}
	}
	return ComponentStatus{}, false
}

// Health probes the search backend and, when configured, the cache.
// Components are ordered backend first.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)

	out := HealthStatus{Status: string(report.Status)}
	for _, name := range []string{componentSearch, componentCache} {
		check, ok := report.Checks[name]
		if !ok {
			continue
		}
		out.Components = append(out.Components, ComponentStatus{
			Name:    name,
			OK:      check.Result == healthuc.CheckOK,
			Latency: check.Latency,
			Err:     check.Err,
		})
	}
	return out
}

const (
	componentSearch = "search"
	componentCache  = "cache"
)

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
