// Package minio provides a blobstore.Store backed by the MinIO client.
//
// MinIO is an S3-compatible object store. The official MinIO Go client also
// talks to other S3-compatible systems such as Ceph, SeaweedFS, and Garage.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "kmeanslab/")
//	info, err := session.Export(ctx, store, kmeanslab.CompressionLZ4)
package minio
