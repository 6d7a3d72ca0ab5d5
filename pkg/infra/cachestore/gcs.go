package cachestore

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
)

// DefaultGCSACL grants read access to every authenticated principal, which covers
// build jobs running under different service accounts
const DefaultGCSACL = "authenticatedRead"

type gcsBackend struct {
	bucket *storage.BucketHandle
	name   string
	acl    string
}

// NewGCS creates a cache store backed by a Cloud Storage bucket.
// acl is a predefined ACL name; empty leaves bucket defaults in place.
func NewGCS(client *storage.Client, bucket, prefix, acl string) interfaces.CacheStore {
	return &store{
		backend: &gcsBackend{bucket: client.Bucket(bucket), name: bucket, acl: acl},
		prefix:  prefix,
	}
}

func (b *gcsBackend) open(ctx context.Context, name string) (io.ReadCloser, bool, error) {
	r, err := b.bucket.Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to read object", goerr.V("bucket", b.name), goerr.V("object", name))
	}
	return r, true, nil
}

func (b *gcsBackend) write(ctx context.Context, name string, r io.Reader) error {
	w := b.bucket.Object(name).NewWriter(ctx)
	w.ContentType = "application/gzip"
	if b.acl != "" {
		w.PredefinedACL = b.acl
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to upload object", goerr.V("bucket", b.name), goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize object", goerr.V("bucket", b.name), goerr.V("object", name))
	}
	return nil
}

func (b *gcsBackend) location(name string) string {
	return "gs://" + b.name + "/" + name
}
