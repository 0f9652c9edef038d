// Package blobstore provides blob storage for trained model artifacts.
//
// Store is the interface for reading and writing named blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests
//   - LocalStore: a directory on the local filesystem
//   - s3.Store: Amazon S3 (multipart uploads through the SDK upload manager)
//   - minio.Store: MinIO and other S3-compatible services
package blobstore
