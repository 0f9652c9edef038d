package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecfield"
	"github.com/hupe1980/vecfield/blobstore"
	"github.com/hupe1980/vecfield/blobstore/minio"
	"github.com/hupe1980/vecfield/blobstore/s3"
	"github.com/hupe1980/vecfield/codec"
	"github.com/hupe1980/vecfield/model"
	"github.com/hupe1980/vecfield/model/dynamodb"
	"github.com/hupe1980/vecfield/model/sqlite"
	"github.com/hupe1980/vecfield/resource"
	"github.com/hupe1980/vecfield/settings"
)

// outputJSON writes a value as formatted JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *rootFlags) logger(stderr io.Writer) (*vecfield.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(f.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", f.logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch f.logFormat {
	case "text":
		return vecfield.NewLogger(slog.NewTextHandler(stderr, opts)), nil
	case "json":
		return vecfield.NewLogger(slog.NewJSONHandler(stderr, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", f.logFormat)
	}
}

func (f *rootFlags) settings() (settings.Reader, error) {
	if f.settingsPath == "" {
		return nil, nil
	}
	m, err := settings.LoadFile(f.settingsPath)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// loadMapping reads a mapping document {"properties": {...}}.
func loadMapping(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	node, err := codec.DecodeNode(codec.Default, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return node, nil
}

// registryFlags selects a model registry backend.
type registryFlags struct {
	dir      string
	s3Bucket string
	minio    string
	bucket   string
	prefix   string
	insecure bool
	dynamodb string
	sqlite   string

	fetches   int64
	ioLimit   int64
	cacheSize int
}

func (r *registryFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&r.dir, "models-dir", "", "Directory holding model blobs")
	fs.StringVar(&r.s3Bucket, "models-s3", "", "S3 bucket holding model blobs")
	fs.StringVar(&r.minio, "models-minio", "", "MinIO endpoint holding model blobs (with --models-bucket)")
	fs.StringVar(&r.bucket, "models-bucket", "", "Bucket for --models-minio")
	fs.StringVar(&r.prefix, "models-prefix", "", "Key prefix for S3 or MinIO model blobs")
	fs.BoolVar(&r.insecure, "models-insecure", false, "Use plain HTTP for --models-minio")
	fs.StringVar(&r.dynamodb, "models-dynamodb", "", "DynamoDB table holding model metadata")
	fs.StringVar(&r.sqlite, "models-sqlite", "", "SQLite database holding model metadata")
	fs.Int64Var(&r.fetches, "models-max-fetches", 4, "Maximum concurrent model blob fetches")
	fs.Int64Var(&r.ioLimit, "models-io-limit", 0, "Model blob IO limit in bytes per second (0 = unlimited)")
	fs.IntVar(&r.cacheSize, "models-cache", model.DefaultCacheSize, "Number of ready models to cache")
	cmd.MarkFlagsMutuallyExclusive("models-dir", "models-s3", "models-minio", "models-dynamodb", "models-sqlite")
}

// open returns the selected registry, or nil when none is selected. The
// returned close function is never nil.
func (r *registryFlags) open(ctx context.Context) (model.Store, func() error, error) {
	noop := func() error { return nil }

	blob := func(store blobstore.Store) model.Store {
		rc := resource.NewController(resource.Config{
			MaxConcurrentFetches: r.fetches,
			IOLimitBytesPerSec:   r.ioLimit,
		})
		return model.NewBlobRegistry(store, model.WithResourceController(rc))
	}

	switch {
	case r.dir != "":
		return blob(blobstore.NewLocalStore(r.dir)), noop, nil
	case r.s3Bucket != "":
		store, err := s3.New(ctx, r.s3Bucket, s3.WithPrefix(r.prefix))
		if err != nil {
			return nil, noop, err
		}
		return blob(store), noop, nil
	case r.minio != "":
		if r.bucket == "" {
			return nil, noop, errors.New("--models-minio requires --models-bucket")
		}
		store, err := minio.New(r.minio, r.bucket,
			minio.WithCredentials(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY")),
			minio.WithSecure(!r.insecure),
			minio.WithPrefix(r.prefix),
		)
		if err != nil {
			return nil, noop, err
		}
		return blob(store), noop, nil
	case r.dynamodb != "":
		reg, err := dynamodb.New(ctx, r.dynamodb)
		if err != nil {
			return nil, noop, err
		}
		return reg, noop, nil
	case r.sqlite != "":
		reg, err := sqlite.Open(ctx, r.sqlite)
		if err != nil {
			return nil, noop, err
		}
		return reg, reg.Close, nil
	default:
		return nil, noop, nil
	}
}

// registry wraps the selected store in a cache for ingestion.
func (r *registryFlags) registry(ctx context.Context) (model.Registry, func() error, error) {
	store, closeFn, err := r.open(ctx)
	if err != nil || store == nil {
		return nil, closeFn, err
	}
	return model.NewCachingRegistry(store, r.cacheSize), closeFn, nil
}
