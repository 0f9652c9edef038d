package vectorstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecfield/mapping"
	"github.com/hupe1980/vecfield/resource"
	"github.com/hupe1980/vecfield/testutil"
	"github.com/hupe1980/vecfield/vector"
)

func compile(t *testing.T, name string, node map[string]any) *mapping.Field {
	t.Helper()
	node["type"] = "vector"
	f, err := mapping.Compile(name, node, mapping.Context{})
	require.NoError(t, err)
	return f
}

func value(t *testing.T, data ...float32) vector.Value {
	t.Helper()
	v, err := vector.New(data)
	require.NoError(t, err)
	return v
}

func TestAddGetDelete(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{})
	s := New(WithResourceController(rc))
	f := compile(t, "v", map[string]any{"dimension": 3})

	require.NoError(t, s.Add(ctx, f, 1, value(t, 1, 2, 3)))
	require.NoError(t, s.Add(ctx, f, 2, value(t, 4, 5, 6)))
	assert.Equal(t, int64(24), rc.MemoryUsage())
	assert.Equal(t, uint64(2), s.Count("v"))

	got, ok := s.Get("v", 1)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got.Float32s())

	// Replacing does not double count.
	require.NoError(t, s.Add(ctx, f, 1, value(t, 7, 8, 9)))
	assert.Equal(t, int64(24), rc.MemoryUsage())

	assert.True(t, s.Delete("v", 1))
	assert.False(t, s.Delete("v", 1))
	assert.False(t, s.Delete("other", 1))
	assert.Equal(t, int64(12), rc.MemoryUsage())

	assert.True(t, s.Delete("v", 2))
	assert.Equal(t, int64(0), rc.MemoryUsage())
	assert.Empty(t, s.Fields())
}

func TestStoredAndDocValues(t *testing.T) {
	ctx := context.Background()
	s := New()
	stored := compile(t, "s", map[string]any{"dimension": 2, "store": true})
	plain := compile(t, "p", map[string]any{"dimension": 2, "doc_values": false})

	v := value(t, 0.5, -1)
	require.NoError(t, s.Add(ctx, stored, 7, v))
	require.NoError(t, s.Add(ctx, plain, 7, v))

	b, ok := s.Stored("s", 7)
	require.True(t, ok)
	back, err := vector.FromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, v.Float32s(), back.Float32s())

	_, ok = s.Stored("p", 7)
	assert.False(t, ok)

	assert.True(t, s.DocValues("s").Contains(7))
	assert.True(t, s.DocValues("p").IsEmpty())
	assert.True(t, s.DocValues("missing").IsEmpty())
	assert.Equal(t, []string{"p", "s"}, s.Fields())
}

func TestMatchExists(t *testing.T) {
	ctx := context.Background()
	s := New()
	f := compile(t, "v", map[string]any{"dimension": 2})

	for _, id := range []uint32{3, 5, 9} {
		require.NoError(t, s.Add(ctx, f, id, value(t, 1, 1)))
	}

	bm, err := s.Match(f.ExistsQuery())
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 5, 9}, bm.ToArray())

	// The returned bitmap is a copy.
	bm.Add(100)
	assert.Equal(t, uint64(3), s.Count("v"))

	bm, err = s.Match(mapping.ExistsQuery{FieldName: "unknown"})
	require.NoError(t, err)
	assert.True(t, bm.IsEmpty())

	_, err = s.Match(nil)
	assert.ErrorIs(t, err, ErrUnsupportedQuery)
}

func TestMemoryLimit(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 16})
	s := New(WithResourceController(rc))
	f := compile(t, "v", map[string]any{"dimension": 2})

	require.NoError(t, s.Add(ctx, f, 1, value(t, 1, 2)))
	require.NoError(t, s.Add(ctx, f, 2, value(t, 1, 2)))

	err := s.Add(ctx, f, 3, value(t, 1, 2))
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	_, ok := s.Get("v", 3)
	assert.False(t, ok)

	s.Delete("v", 1)
	assert.NoError(t, s.Add(ctx, f, 3, value(t, 1, 2)))
}

func TestWrongDimension(t *testing.T) {
	ctx := context.Background()
	s := New()
	f := compile(t, "v", map[string]any{"dimension": 2})

	require.NoError(t, s.Add(ctx, f, 1, value(t, 1, 2)))
	err := s.Add(ctx, f, 2, value(t, 1, 2, 3))
	assert.ErrorIs(t, err, ErrWrongDimension)
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := compile(t, "v", map[string]any{"dimension": 2})
	assert.ErrorIs(t, New().Add(ctx, f, 1, value(t, 1, 2)), context.Canceled)
}

func TestConcurrentAdd(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{})
	s := New(WithResourceController(rc))
	f := compile(t, "v", map[string]any{"dimension": 8})

	rng := testutil.NewRNG(1)
	vecs := rng.UniformVectors(64, 8)

	var wg sync.WaitGroup
	for i, data := range vecs {
		wg.Add(1)
		go func(id uint32, data []float32) {
			defer wg.Done()
			v, err := vector.New(data)
			assert.NoError(t, err)
			assert.NoError(t, s.Add(ctx, f, id, v))
		}(uint32(i), data)
	}
	wg.Wait()

	assert.Equal(t, uint64(64), s.Count("v"))
	assert.Equal(t, int64(64*8*4), rc.MemoryUsage())
}
