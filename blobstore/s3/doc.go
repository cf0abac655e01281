// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-1"))
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "kmeanslab/")
//
//	info, err := session.Export(ctx, store, kmeanslab.CompressionZSTD)
//
// Writes go through the S3 transfer manager, so large exports are uploaded
// in parallel parts.
package s3
