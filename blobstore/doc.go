// Package blobstore provides the storage abstraction used for run exports.
//
// A Store holds immutable, named blobs. Names are slash-separated relative
// paths such as "runs/4f1c.kms". Implementations must be safe for
// concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, atomic writes via rename
//   - MemoryStore: in-process map, for tests and ephemeral servers
//   - s3.Store: Amazon S3 (see blobstore/s3)
//   - minio.Store: MinIO and other S3-compatible services (see blobstore/minio)
//
// # Custom Implementations
//
//	type Store interface {
//	    Put(ctx, name, data) error
//	    Get(ctx, name) ([]byte, error)
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
