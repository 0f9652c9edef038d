package vecfield

import (
	"log/slog"

	"github.com/hupe1980/vecfield/engine"
	"github.com/hupe1980/vecfield/guard"
	"github.com/hupe1980/vecfield/model"
	"github.com/hupe1980/vecfield/settings"
)

// DefaultWorkers bounds IndexBatch concurrency when WithWorkers is not set.
const DefaultWorkers = 8

type options struct {
	engines          *engine.Table
	settings         settings.Reader
	registry         model.Registry
	guards           guard.Set
	sink             Sink
	metricsCollector MetricsCollector
	logger           *Logger
	workers          int
}

// Option configures a Mapper.
type Option func(*options)

// WithEngines sets the engine capability table.
// If nil is passed, engine.DefaultTable is used.
func WithEngines(t *engine.Table) Option {
	return func(o *options) {
		o.engines = t
	}
}

// WithSettings sets the index-wide settings consulted at compile time for
// legacy fields and ignore_malformed. When no guards are configured the
// feature gate also reads knn.plugin.enabled from these settings.
func WithSettings(r settings.Reader) Option {
	return func(o *options) {
		o.settings = r
	}
}

// WithRegistry sets the model registry used for model-reference fields.
func WithRegistry(r model.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithGuards sets the runtime guards checked before every parse.
func WithGuards(g guard.Set) Option {
	return func(o *options) {
		o.guards = g
	}
}

// WithSink sets the storage collaborator receiving parsed vectors.
func WithSink(s Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecfield.BasicMetricsCollector{}
//	m := vecfield.New(vecfield.WithMetricsCollector(metrics))
//	// ... use m ...
//	stats := metrics.GetStats()
//	fmt.Printf("Parses: %d, Avg latency: %dns\n", stats.ParseCount, stats.ParseAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := vecfield.NewJSONLogger(slog.LevelInfo)
//	m := vecfield.New(vecfield.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithWorkers bounds the number of documents IndexBatch parses concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		workers:          DefaultWorkers,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.engines == nil {
		o.engines = engine.DefaultTable()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.workers <= 0 {
		o.workers = DefaultWorkers
	}
	if o.guards.Feature == nil && o.settings != nil {
		o.guards.Feature = guard.SettingsGate{Settings: o.settings}
	}
	return o
}
