// Package blobstore provides storage for persisted engine artefacts:
// score-cache snapshots and parameter-tuning results.
//
// Store is the interface for reading and writing whole blobs by name.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and short-lived runs
//   - LocalStore: local filesystem with atomic rename-on-write
//   - minio.Store: MinIO and S3-compatible object storage
//   - s3.Store: Amazon S3 with multipart uploads
//
// # Custom Implementations
//
// Implement the Store interface to support custom storage backends:
//
//	type Store interface {
//	    Get(ctx, name) ([]byte, error)
//	    Put(ctx, name, data) error  // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
