package cachestore

import (
	"context"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minio/minio-go/v7"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
)

type s3Backend struct {
	client *minio.Client
	bucket string
}

// NewS3 creates a cache store backed by an S3 compatible bucket
func NewS3(client *minio.Client, bucket, prefix string) interfaces.CacheStore {
	return &store{
		backend: &s3Backend{client: client, bucket: bucket},
		prefix:  prefix,
	}
}

func (b *s3Backend) open(ctx context.Context, name string) (io.ReadCloser, bool, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to get object", goerr.V("bucket", b.bucket), goerr.V("object", name))
	}
	// GetObject is lazy; Stat surfaces a missing key
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, goerr.Wrap(err, "failed to stat object", goerr.V("bucket", b.bucket), goerr.V("object", name))
	}
	return obj, true, nil
}

func (b *s3Backend) write(ctx context.Context, name string, r io.Reader) error {
	_, err := b.client.PutObject(ctx, b.bucket, name, r, -1, minio.PutObjectOptions{
		ContentType:  "application/gzip",
		UserMetadata: map[string]string{"x-amz-acl": "public-read"},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put object", goerr.V("bucket", b.bucket), goerr.V("object", name))
	}
	return nil
}

func (b *s3Backend) location(name string) string {
	return "s3://" + b.bucket + "/" + name
}
