package model

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecfield/blobstore"
	"github.com/hupe1980/vecfield/codec"
	"github.com/hupe1980/vecfield/engine"
	"github.com/hupe1980/vecfield/internal/compress"
	"github.com/hupe1980/vecfield/resource"
)

func readyModel(id string, dim int) Metadata {
	return Metadata{
		ID:        id,
		Engine:    engine.Faiss,
		SpaceType: engine.SpaceL2,
		Dimension: dim,
		State:     StateCreated,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name string
		m    Metadata
		ok   bool
	}{
		{"created", readyModel("m", 8), true},
		{"training", Metadata{ID: "m", State: StateTraining, Dimension: 8}, false},
		{"failed", Metadata{ID: "m", State: StateFailed, Dimension: 8, Error: "oom"}, false},
		{"zero dimension", Metadata{ID: "m", State: StateCreated}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Ready()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrModelNotReady)
		})
	}

	err := Metadata{ID: "m", State: StateFailed, Dimension: 8, Error: "oom"}.Ready()
	assert.Contains(t, err.Error(), "oom")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, readyModel("m", 4).Validate())
	assert.Error(t, Metadata{State: StateCreated}.Validate())
	assert.Error(t, Metadata{ID: "m", State: "unknown"}.Validate())
	assert.Error(t, Metadata{ID: "m", State: StateCreated, Dimension: -1}.Validate())
}

func TestMemoryRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry(readyModel("a", 4))

	m, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 4, m.Dimension)

	_, err = r.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Put(ctx, readyModel("b", 16)))
	m, err = r.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 16, m.Dimension)

	assert.Error(t, r.Put(ctx, Metadata{}))

	require.NoError(t, r.Delete(ctx, "a"))
	_, err = r.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry(
		readyModel("ready", 8),
		Metadata{ID: "busy", State: StateTraining},
	)

	m, err := Resolve(ctx, r, "ready")
	require.NoError(t, err)
	assert.Equal(t, 8, m.Dimension)

	_, err = Resolve(ctx, r, "busy")
	assert.ErrorIs(t, err, ErrModelNotReady)

	_, err = Resolve(ctx, r, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

type countingRegistry struct {
	Registry
	calls atomic.Int64
}

func (c *countingRegistry) Get(ctx context.Context, id string) (Metadata, error) {
	c.calls.Add(1)
	return c.Registry.Get(ctx, id)
}

func TestCachingRegistry(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryRegistry(readyModel("ready", 8), Metadata{ID: "busy", State: StateTraining})
	next := &countingRegistry{Registry: mem}
	r := NewCachingRegistry(next, 0)

	for range 3 {
		m, err := r.Get(ctx, "ready")
		require.NoError(t, err)
		assert.Equal(t, 8, m.Dimension)
	}
	assert.Equal(t, int64(1), next.calls.Load())

	hits, misses := r.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)

	// Models that are not ready are never cached.
	for range 2 {
		_, err := r.Get(ctx, "busy")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), next.calls.Load())

	// Once training finishes the new state is visible.
	require.NoError(t, mem.Put(ctx, readyModel("busy", 32)))
	m, err := r.Get(ctx, "busy")
	require.NoError(t, err)
	assert.Equal(t, 32, m.Dimension)

	_, err = r.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mem.Put(ctx, readyModel("ready", 64)))
	r.Invalidate("ready")
	m, err = r.Get(ctx, "ready")
	require.NoError(t, err)
	assert.Equal(t, 64, m.Dimension)
}

func TestBlobRegistry(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name  string
		codec codec.Codec
		comp  compress.Type
	}{
		{"json/none", codec.JSON{}, compress.None},
		{"go-json/lz4", codec.GoJSON{}, compress.LZ4},
		{"go-json/zstd", codec.GoJSON{}, compress.ZSTD},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			rc := resource.NewController(resource.Config{MaxConcurrentFetches: 1})
			r := NewBlobRegistry(store,
				WithCodec(tc.codec),
				WithCompression(tc.comp),
				WithResourceController(rc),
			)

			want := readyModel("m1", 128)
			want.Description = "trained on sample"
			require.NoError(t, r.Put(ctx, want))

			_, err := store.Get(ctx, "models/m1")
			require.NoError(t, err)

			got, err := r.Get(ctx, "m1")
			require.NoError(t, err)
			assert.Equal(t, want, got)

			ids, err := r.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"m1"}, ids)

			require.NoError(t, r.Delete(ctx, "m1"))
			_, err = r.Get(ctx, "m1")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBlobRegistryReadsOtherCodec(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	require.NoError(t, NewBlobRegistry(store, WithCodec(codec.JSON{})).Put(ctx, readyModel("m", 8)))

	got, err := NewBlobRegistry(store, WithCodec(codec.GoJSON{})).Get(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, 8, got.Dimension)
}

func TestBlobRegistryCorrupt(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "models/bad", []byte{0xff}))

	_, err := NewBlobRegistry(store).Get(ctx, "bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestBlobRegistryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rc := resource.NewController(resource.Config{MaxConcurrentFetches: 1})
	require.NoError(t, rc.AcquireFetch(context.Background()))
	defer rc.ReleaseFetch()

	cancel()
	_, err := NewBlobRegistry(blobstore.NewMemoryStore(), WithResourceController(rc)).Get(ctx, "m")
	assert.ErrorIs(t, err, context.Canceled)
}
