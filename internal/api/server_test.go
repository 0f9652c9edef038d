package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecfield"
	"github.com/hupe1980/vecfield/observability"
	"github.com/hupe1980/vecfield/vectorstore"
)

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

const mappingBody = `{
	"properties": {
		"title": {"type": "text"},
		"embedding": {"type": "vector", "dimension": 3, "ignore_malformed": false},
		"native": {"type": "vector", "dimension": 2, "method": {"engine": "lucene", "space_type": "l2"}}
	}
}`

func TestValidate(t *testing.T) {
	s := NewServer(Config{})

	w, resp := do(t, s.Handler(), "POST", "/_validate", mappingBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["valid"])

	fields := resp["fields"].([]any)
	require.Len(t, fields, 2)
	first := fields[0].(map[string]any)
	assert.Equal(t, "embedding", first["name"])
	assert.Equal(t, "legacy", first["variant"])
	second := fields[1].(map[string]any)
	assert.Equal(t, "native_codec", second["storage"])

	w, resp = do(t, s.Handler(), "POST", "/_validate", `{"properties": {"v": {"type": "vector"}}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["valid"])
	bad := resp["fields"].([]any)[0].(map[string]any)
	assert.Equal(t, "config", bad["class"])

	// Validation never registers fields.
	w, _ = do(t, s.Handler(), "GET", "/fields/embedding/_count", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, s.Handler(), "POST", "/_validate", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMappingAndIngest(t *testing.T) {
	store := vectorstore.New()
	s := NewServer(Config{
		Mapper: vecfield.New(vecfield.WithSink(store)),
		Store:  store,
	})
	h := s.Handler()

	w, _ := do(t, h, "PUT", "/_mapping", mappingBody)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := do(t, h, "POST", "/fields/embedding/_ingest", `{"docs": [
		{"id": 1, "value": [0.1, 0.2, 0.3]},
		{"id": 2, "value": [0.1, 0.2]},
		{"id": 3, "value": null}
	]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, resp["indexed"])
	assert.Equal(t, 1.0, resp["failed"])

	results := resp["results"].([]any)
	assert.Equal(t, "indexed", results[0].(map[string]any)["outcome"])
	assert.Equal(t, "value", results[1].(map[string]any)["class"])
	assert.Equal(t, "skipped", results[2].(map[string]any)["outcome"])

	w, resp = do(t, h, "GET", "/fields/embedding/_count", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, resp["count"])

	w, _ = do(t, h, "POST", "/fields/missing/_ingest", `{"docs": []}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, h, "POST", "/fields/embedding/_ingest", `{"docs": 5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPutMappingMerge(t *testing.T) {
	s := NewServer(Config{})
	h := s.Handler()

	w, _ := do(t, h, "PUT", "/_mapping", `{"properties": {"v": {"type": "vector", "dimension": 3}}}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, h, "PUT", "/_mapping", `{"properties": {"v": {"type": "vector", "dimension": 3, "meta": {"unit": "cm"}}}}`)
	require.Equal(t, http.StatusOK, w.Code)
	f, ok := s.Field("v")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"unit": "cm"}, f.Config().Meta)

	w, resp := do(t, h, "PUT", "/_mapping", `{"properties": {"v": {"type": "vector", "dimension": 4}}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["valid"])
	f, _ = s.Field("v")
	assert.Equal(t, 3, f.Dimension())

	w, resp = do(t, h, "GET", "/_mapping", "")
	require.Equal(t, http.StatusOK, w.Code)
	props := resp["properties"].(map[string]any)
	assert.Equal(t, 3.0, props["v"].(map[string]any)["dimension"])
}

func TestMetricsAndHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	require.NoError(t, err)

	store := vectorstore.New()
	s := NewServer(Config{
		Mapper:  vecfield.New(vecfield.WithSink(store), vecfield.WithMetricsCollector(collector)),
		Store:   store,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	h := s.Handler()

	do(t, h, "POST", "/_validate", mappingBody)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vecfield_field_compiles_total")

	w, resp := do(t, h, "GET", "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp["status"])
}
