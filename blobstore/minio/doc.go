// Package minio provides a MinIO implementation of the blobstore.Store
// interface. It works with any S3-compatible service reachable through
// minio-go.
//
// # Usage
//
//	store, err := minio.New("localhost:9000", "models",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	    minio.WithPrefix("vecfield/"),
//	)
package minio
