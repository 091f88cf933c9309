package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineCollector exposes follow-point computation and export metrics.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	ComputeDuration     prometheus.Histogram
	FollowPointsTotal   prometheus.Counter
	ExportsTotal        *prometheus.CounterVec
	ExportedBytesTotal  prometheus.Counter
	LastFollowPointSize prometheus.Gauge
}

// NewEngineCollector registers engine metrics against the provided registerer.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := gathererFor(reg)

	computeHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "blitz_follow_point_computation_duration_seconds",
		Help:    "Duration of follow-point computations for one trajectory.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
	})
	computeHistogram, err := registerHistogram(reg, computeHistogram, "blitz_follow_point_computation_duration_seconds")
	if err != nil {
		return nil, err
	}

	points := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blitz_follow_points_generated_total",
		Help: "Cumulative number of follow points generated.",
	})
	points, err = registerCounter(reg, points, "blitz_follow_points_generated_total")
	if err != nil {
		return nil, err
	}

	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blitz_exports_total",
		Help: "Export attempts, labeled by format and result.",
	}, []string{"format", "result"})
	exports, err = registerCounterVec(reg, exports, "blitz_exports_total")
	if err != nil {
		return nil, err
	}

	exportedBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blitz_exported_bytes_total",
		Help: "Cumulative size of successful exports in bytes.",
	})
	exportedBytes, err = registerCounter(reg, exportedBytes, "blitz_exported_bytes_total")
	if err != nil {
		return nil, err
	}

	lastSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "blitz_last_follow_point_count",
		Help: "Number of follow points produced by the most recent computation.",
	})
	lastSize, err = registerGauge(reg, lastSize, "blitz_last_follow_point_count")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:            gatherer,
		ComputeDuration:     computeHistogram,
		FollowPointsTotal:   points,
		ExportsTotal:        exports,
		ExportedBytesTotal:  exportedBytes,
		LastFollowPointSize: lastSize,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *EngineCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *EngineCollector) Handler() http.Handler {
	return handlerFor(c.Gatherer())
}

// ObserveCompute records one follow-point computation.
func (c *EngineCollector) ObserveCompute(d time.Duration, points int) {
	if c == nil {
		return
	}
	if c.ComputeDuration != nil {
		c.ComputeDuration.Observe(d.Seconds())
	}
	if points < 0 {
		points = 0
	}
	if c.FollowPointsTotal != nil {
		c.FollowPointsTotal.Add(float64(points))
	}
	if c.LastFollowPointSize != nil {
		c.LastFollowPointSize.Set(float64(points))
	}
}

// ObserveExport counts one export attempt. bytes is only added for the "ok"
// result.
func (c *EngineCollector) ObserveExport(format, result string, bytes int) {
	if c == nil {
		return
	}
	if c.ExportsTotal != nil {
		c.ExportsTotal.WithLabelValues(format, result).Inc()
	}
	if result == "ok" && bytes > 0 && c.ExportedBytesTotal != nil {
		c.ExportedBytesTotal.Add(float64(bytes))
	}
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
