package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/kmeanslab/blobstore"
	"github.com/hupe1980/kmeanslab/blobstore/minio"
	s3store "github.com/hupe1980/kmeanslab/blobstore/s3"
	"github.com/hupe1980/kmeanslab/internal/config"
)

// newStore builds the export store. An empty backend disables export.
func newStore(ctx context.Context, c config.Export) (blobstore.Store, error) {
	switch c.Backend {
	case "":
		return nil, nil
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "local":
		return blobstore.NewLocalStore(c.Dir), nil
	case "s3":
		return newS3Store(ctx, c)
	case "minio":
		return newMinioStore(ctx, c)
	default:
		return nil, fmt.Errorf("unknown export backend %q", c.Backend)
	}
}

func newS3Store(ctx context.Context, c config.Export) (blobstore.Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = &c.Endpoint
			o.UsePathStyle = true
		}
	})
	return s3store.NewStore(client, c.Bucket, c.Prefix), nil
}

func newMinioStore(ctx context.Context, c config.Export) (blobstore.Store, error) {
	client, err := miniogo.New(c.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: c.UseSSL,
		Region: c.Region,
	})
	if err != nil {
		return nil, err
	}

	store := minio.NewStore(client, c.Bucket, c.Prefix)
	if err := store.EnsureBucket(ctx, c.Region); err != nil {
		return nil, err
	}
	return store, nil
}
