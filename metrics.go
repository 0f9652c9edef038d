package vecfield

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/vecfield/mapping"
)

// MetricsCollector defines an interface for collecting operational metrics.
// The observability package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordCompile is called after each field compile or merge. variant is
	// empty when err is not nil.
	RecordCompile(variant mapping.VariantKind, duration time.Duration, err error)

	// RecordParse is called after each vector parse that passed the guards.
	RecordParse(duration time.Duration, err error)

	// RecordGuardRejection is called when a runtime guard rejects a document.
	// kind is "feature_disabled" or "circuit_breaker_tripped".
	RecordGuardRejection(kind string)

	// RecordIgnored is called when a malformed value is skipped.
	RecordIgnored()

	// RecordBatch is called after each batch. failed counts documents that
	// returned an error.
	RecordBatch(count, failed int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCompile(mapping.VariantKind, time.Duration, error) {}
func (NoopMetricsCollector) RecordParse(time.Duration, error)                        {}
func (NoopMetricsCollector) RecordGuardRejection(string)                             {}
func (NoopMetricsCollector) RecordIgnored()                                          {}
func (NoopMetricsCollector) RecordBatch(int, int, time.Duration)                     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests.
type BasicMetricsCollector struct {
	CompileCount     atomic.Int64
	CompileErrors    atomic.Int64
	ParseCount       atomic.Int64
	ParseErrors      atomic.Int64
	ParseTotalNanos  atomic.Int64
	FeatureDisabled  atomic.Int64
	BreakerTripped   atomic.Int64
	IgnoredMalformed atomic.Int64
	BatchCount       atomic.Int64
	BatchDocuments   atomic.Int64
	BatchFailed      atomic.Int64
}

// RecordCompile implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompile(_ mapping.VariantKind, _ time.Duration, err error) {
	b.CompileCount.Add(1)
	if err != nil {
		b.CompileErrors.Add(1)
	}
}

// RecordParse implements MetricsCollector.
func (b *BasicMetricsCollector) RecordParse(duration time.Duration, err error) {
	b.ParseCount.Add(1)
	b.ParseTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ParseErrors.Add(1)
	}
}

// RecordGuardRejection implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGuardRejection(kind string) {
	switch kind {
	case "feature_disabled":
		b.FeatureDisabled.Add(1)
	case "circuit_breaker_tripped":
		b.BreakerTripped.Add(1)
	}
}

// RecordIgnored implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIgnored() {
	b.IgnoredMalformed.Add(1)
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(count, failed int, _ time.Duration) {
	b.BatchCount.Add(1)
	b.BatchDocuments.Add(int64(count))
	b.BatchFailed.Add(int64(failed))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CompileCount:     b.CompileCount.Load(),
		CompileErrors:    b.CompileErrors.Load(),
		ParseCount:       b.ParseCount.Load(),
		ParseErrors:      b.ParseErrors.Load(),
		ParseAvgNanos:    b.getAvgParseNanos(),
		FeatureDisabled:  b.FeatureDisabled.Load(),
		BreakerTripped:   b.BreakerTripped.Load(),
		IgnoredMalformed: b.IgnoredMalformed.Load(),
		BatchCount:       b.BatchCount.Load(),
		BatchDocuments:   b.BatchDocuments.Load(),
		BatchFailed:      b.BatchFailed.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgParseNanos() int64 {
	count := b.ParseCount.Load()
	if count == 0 {
		return 0
	}
	return b.ParseTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CompileCount     int64
	CompileErrors    int64
	ParseCount       int64
	ParseErrors      int64
	ParseAvgNanos    int64
	FeatureDisabled  int64
	BreakerTripped   int64
	IgnoredMalformed int64
	BatchCount       int64
	BatchDocuments   int64
	BatchFailed      int64
}
