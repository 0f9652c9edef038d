// Package s3 provides an S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("vecfield/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	registry := model.NewBlobRegistry(store)
//
// # Features
//
//   - Multipart uploads for large model artifacts
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
