package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/vecfield/blobstore"
	"github.com/hupe1980/vecfield/codec"
	"github.com/hupe1980/vecfield/internal/compress"
	"github.com/hupe1980/vecfield/resource"
)

const blobPrefix = "models/"

// envelopeCodec encodes the envelope independently of the metadata codec.
var envelopeCodec codec.Codec = codec.JSON{}

// blobEnvelope is the persisted form of a model blob. The codec name is
// recorded so blobs stay readable when the default codec changes.
type blobEnvelope struct {
	Codec    string `json:"codec"`
	Metadata []byte `json:"metadata"`
}

// BlobRegistry stores model metadata as blobs named models/<id>.
type BlobRegistry struct {
	store       blobstore.Store
	codec       codec.Codec
	compression compress.Type
	rc          *resource.Controller
}

// BlobOption configures a BlobRegistry.
type BlobOption func(*BlobRegistry)

// WithCodec sets the codec for new blobs.
func WithCodec(c codec.Codec) BlobOption {
	return func(r *BlobRegistry) {
		if c != nil {
			r.codec = c
		}
	}
}

// WithCompression sets the compression for new blobs.
func WithCompression(t compress.Type) BlobOption {
	return func(r *BlobRegistry) { r.compression = t }
}

// WithResourceController bounds concurrent fetches and blob IO throughput.
func WithResourceController(rc *resource.Controller) BlobOption {
	return func(r *BlobRegistry) { r.rc = rc }
}

// NewBlobRegistry creates a registry on store.
func NewBlobRegistry(store blobstore.Store, opts ...BlobOption) *BlobRegistry {
	r := &BlobRegistry{
		store:       store,
		codec:       codec.Default,
		compression: compress.ZSTD,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func blobName(id string) string { return blobPrefix + id }

// Get implements Registry.
func (r *BlobRegistry) Get(ctx context.Context, id string) (Metadata, error) {
	if err := r.rc.AcquireFetch(ctx); err != nil {
		return Metadata{}, err
	}
	defer r.rc.ReleaseFetch()

	data, err := r.store.Get(ctx, blobName(id))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return Metadata{}, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return Metadata{}, fmt.Errorf("model %q: read blob: %w", id, err)
	}
	if err := r.rc.AcquireIO(ctx, len(data)); err != nil {
		return Metadata{}, err
	}

	raw, err := compress.Decode(data)
	if err != nil {
		return Metadata{}, fmt.Errorf("model %q: %w", id, err)
	}

	var env blobEnvelope
	if err := envelopeCodec.Unmarshal(raw, &env); err != nil {
		return Metadata{}, fmt.Errorf("model %q: decode envelope: %w", id, err)
	}
	c, ok := codec.ByName(env.Codec)
	if !ok {
		return Metadata{}, fmt.Errorf("model %q: unknown codec %q", id, env.Codec)
	}

	var m Metadata
	if err := c.Unmarshal(env.Metadata, &m); err != nil {
		return Metadata{}, fmt.Errorf("model %q: decode metadata: %w", id, err)
	}
	return m, nil
}

// Put stores m.
func (r *BlobRegistry) Put(ctx context.Context, m Metadata) error {
	if err := m.Validate(); err != nil {
		return err
	}

	meta, err := r.codec.Marshal(m)
	if err != nil {
		return fmt.Errorf("model %q: encode metadata: %w", m.ID, err)
	}
	raw, err := envelopeCodec.Marshal(blobEnvelope{Codec: r.codec.Name(), Metadata: meta})
	if err != nil {
		return fmt.Errorf("model %q: encode envelope: %w", m.ID, err)
	}
	data, err := compress.Encode(raw, r.compression)
	if err != nil {
		return fmt.Errorf("model %q: %w", m.ID, err)
	}
	if err := r.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	return r.store.Put(ctx, blobName(m.ID), data)
}

// Delete removes id.
func (r *BlobRegistry) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, blobName(id))
}

// List returns the ids of all stored models.
func (r *BlobRegistry) List(ctx context.Context) ([]string, error) {
	names, err := r.store.List(ctx, blobPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(names))
	for _, n := range names {
		ids = append(ids, strings.TrimPrefix(n, blobPrefix))
	}
	return ids, nil
}
