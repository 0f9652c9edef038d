// Package model provides registries of trained models.
//
// A vector field that references a model has no dimension until documents
// are ingested; the registry then supplies the model's metadata. Registries
// are consulted only at ingestion time, never when a mapping is compiled.
//
// # Implementations
//
//   - MemoryRegistry: in-process map
//   - CachingRegistry: LRU in front of any registry, caching ready models
//   - BlobRegistry: metadata blobs in a blobstore.Store (local, S3, MinIO)
//   - dynamodb.Registry: one item per model in a DynamoDB table
//   - sqlite.Registry: a models table in a SQLite database
package model
