// Package observability exports vecfield metrics to Prometheus.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/vecfield"
	"github.com/hupe1980/vecfield/guard"
	"github.com/hupe1980/vecfield/mapping"
	"github.com/hupe1980/vecfield/resource"
)

const namespace = "vecfield"

var _ vecfield.MetricsCollector = (*Collector)(nil)

// Collector implements vecfield.MetricsCollector on Prometheus metrics.
type Collector struct {
	compiles         *prometheus.CounterVec
	compileLatency   prometheus.Histogram
	parses           *prometheus.CounterVec
	parseLatency     prometheus.Histogram
	guardRejections  *prometheus.CounterVec
	ignoredMalformed prometheus.Counter
	batchDocuments   *prometheus.CounterVec
}

// Option configures a Collector.
type Option func(*config)

type config struct {
	rc      *resource.Controller
	breaker guard.CircuitBreaker
}

// WithMemoryController exports the vector memory held in rc as a gauge.
func WithMemoryController(rc *resource.Controller) Option {
	return func(c *config) { c.rc = rc }
}

// WithBreaker exports the breaker state as a 0/1 gauge.
func WithBreaker(b guard.CircuitBreaker) Option {
	return func(c *config) { c.breaker = b }
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer, opts ...Option) (*Collector, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Collector{
		compiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_compiles_total",
			Help:      "Field compilations by variant and status",
		}, []string{"variant", "status"}),
		compileLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "field_compile_duration_seconds",
			Help:      "Latency of field compilation",
			Buckets:   prometheus.DefBuckets,
		}),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vector_parses_total",
			Help:      "Vector parses by status",
		}, []string{"status"}),
		parseLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vector_parse_duration_seconds",
			Help:      "Latency of vector parsing",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		guardRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_rejections_total",
			Help:      "Documents rejected by runtime guards",
		}, []string{"reason"}),
		ignoredMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ignored_malformed_total",
			Help:      "Malformed values skipped by ignore_malformed",
		}),
		batchDocuments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_documents_total",
			Help:      "Documents processed by batch index calls",
		}, []string{"status"}),
	}

	collectors := []prometheus.Collector{
		c.compiles, c.compileLatency, c.parses, c.parseLatency,
		c.guardRejections, c.ignoredMalformed, c.batchDocuments,
	}
	if cfg.rc != nil {
		rc := cfg.rc
		collectors = append(collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vector_memory_bytes",
			Help:      "Native memory reserved by indexed vectors",
		}, func() float64 { return float64(rc.MemoryUsage()) }))
	}
	if cfg.breaker != nil {
		b := cfg.breaker
		collectors = append(collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_tripped",
			Help:      "1 while the circuit breaker is tripped",
		}, func() float64 {
			if b.Tripped() {
				return 1
			}
			return 0
		}))
	}

	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordCompile implements vecfield.MetricsCollector.
func (c *Collector) RecordCompile(variant mapping.VariantKind, d time.Duration, err error) {
	v := string(variant)
	if v == "" {
		v = "none"
	}
	c.compiles.WithLabelValues(v, status(err)).Inc()
	c.compileLatency.Observe(d.Seconds())
}

// RecordParse implements vecfield.MetricsCollector.
func (c *Collector) RecordParse(d time.Duration, err error) {
	c.parses.WithLabelValues(status(err)).Inc()
	c.parseLatency.Observe(d.Seconds())
}

// RecordGuardRejection implements vecfield.MetricsCollector.
func (c *Collector) RecordGuardRejection(kind string) {
	c.guardRejections.WithLabelValues(kind).Inc()
}

// RecordIgnored implements vecfield.MetricsCollector.
func (c *Collector) RecordIgnored() {
	c.ignoredMalformed.Inc()
}

// RecordBatch implements vecfield.MetricsCollector.
func (c *Collector) RecordBatch(count, failed int, _ time.Duration) {
	c.batchDocuments.WithLabelValues("success").Add(float64(count - failed))
	c.batchDocuments.WithLabelValues("error").Add(float64(failed))
}
