package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecfield"
	"github.com/hupe1980/vecfield/guard"
	"github.com/hupe1980/vecfield/resource"
	"github.com/hupe1980/vecfield/vectorstore"
)

// value returns the sum of all samples of the named metric whose labels
// include want.
func value(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	var sum float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metrics
				}
			}
			switch {
			case m.GetCounter() != nil:
				sum += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				sum += m.GetGauge().GetValue()
			}
		}
	}
	return sum
}

func TestCollector(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	rc := resource.NewController(resource.Config{})
	breaker := guard.NewFlag(false)

	c, err := NewCollector(reg, WithMemoryController(rc), WithBreaker(breaker))
	require.NoError(t, err)

	m := vecfield.New(
		vecfield.WithMetricsCollector(c),
		vecfield.WithSink(vectorstore.New(vectorstore.WithResourceController(rc))),
		vecfield.WithGuards(guard.Set{Breaker: breaker}),
	)

	f, err := m.Compile("v", map[string]any{"type": "vector", "dimension": 2, "ignore_malformed": true})
	require.NoError(t, err)
	_, err = m.Compile("bad", map[string]any{"type": "vector"})
	require.Error(t, err)

	m.IndexBatch(ctx, f, []vecfield.Document{
		{ID: 1, Value: []any{1, 2}},
		{ID: 2, Value: []any{1}},
	})

	breaker.Set(true)
	_, err = m.Index(ctx, f, vecfield.Document{ID: 3, Value: []any{1, 2}})
	require.Error(t, err)

	assert.Equal(t, 1.0, value(t, reg, "vecfield_field_compiles_total", map[string]string{"variant": "legacy", "status": "success"}))
	assert.Equal(t, 1.0, value(t, reg, "vecfield_field_compiles_total", map[string]string{"variant": "none", "status": "error"}))
	assert.Equal(t, 1.0, value(t, reg, "vecfield_vector_parses_total", map[string]string{"status": "success"}))
	assert.Equal(t, 1.0, value(t, reg, "vecfield_vector_parses_total", map[string]string{"status": "error"}))
	assert.Equal(t, 1.0, value(t, reg, "vecfield_ignored_malformed_total", nil))
	assert.Equal(t, 1.0, value(t, reg, "vecfield_guard_rejections_total", map[string]string{"reason": "circuit_breaker_tripped"}))
	assert.Equal(t, 2.0, value(t, reg, "vecfield_batch_documents_total", map[string]string{"status": "success"}))
	assert.Equal(t, 8.0, value(t, reg, "vecfield_vector_memory_bytes", nil))
	assert.Equal(t, 1.0, value(t, reg, "vecfield_circuit_breaker_tripped", nil))
}

func TestCollectorDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}
