package discover

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/discover/internal/domain"
)

// Operation names used as the "op" metric label.
const (
	opPing       = "ping"
	opSearch     = "search"
	opCounts     = "counts"
	opTypes      = "types"
	opInvalidate = "invalidate_cache"
	opApply      = "session_apply"
	opLoadPage   = "session_load_page"
)

// Outcome label values.
const (
	outcomeOK         = "ok"
	outcomeSuperseded = "superseded"
	outcomeInvalid    = "invalid"
	outcomeError      = "error"
)

// outcome buckets err for the "outcome" label.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrSuperseded):
		return outcomeSuperseded
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrQuerySyntax):
		return outcomeInvalid
	default:
		return outcomeError
	}
}

type clientMetrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// searchBuckets spans a cached count lookup up to a slow full-text query.
var searchBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discover_client_operations_total",
		Help: "Discover client calls by operation and outcome.",
	}, []string{"op", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "discover_client_operation_duration_seconds",
		Help:    "Discover client call latency.",
		Buckets: searchBuckets,
	}, []string{"op"})

	var err error
	if calls, err = register(reg, calls); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}
	return &clientMetrics{calls: calls, latency: latency}, nil
}

// register adds c to reg, returning the existing collector if an equal one is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("discover: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("discover: metric registered as %T", are.ExistingCollector)
	}
	return existing, nil
}

// observer logs and measures client calls. The nil *observer does nothing.
type observer struct {
	logger  *zap.Logger
	metrics *clientMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}
	m, err := newClientMetrics(reg)
	if err != nil {
		return nil, err
	}
	o.metrics = m
	return o, nil
}

// track starts timing op. The returned func records the call's outcome:
//
//	done := c.obs.track(opSearch)
//	defer func() { done(err) }()
func (o *observer) track(op string) func(error) {
	if o == nil {
		return func(error) {}
	}
	start := time.Now()
	return func(err error) {
		o.record(op, time.Since(start), err)
	}
}

func (o *observer) record(op string, dur time.Duration, err error) {
	out := outcome(err)
	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(op, out).Inc()
		o.metrics.latency.WithLabelValues(op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}

	fields := []zap.Field{zap.String("op", op), zap.Duration("duration", dur)}
	switch out {
	case outcomeOK, outcomeSuperseded:
		o.logger.Debug("Discover call finished", append(fields, zap.String("outcome", out))...)
	case outcomeInvalid:
		o.logger.Info("Discover call rejected", append(fields, zap.Error(err))...)
	default:
		o.logger.Warn("Discover call failed", append(fields, zap.Error(err))...)
	}
}
