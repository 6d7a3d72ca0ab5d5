package config

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/infra/cachestore"
)

// Cache backends
const (
	CacheBackendNone = "none"
	CacheBackendFS   = "fs"
	CacheBackendGCS  = "gcs"
	CacheBackendS3   = "s3"
)

// Cache holds dependency cache configuration
type Cache struct {
	Backend string
	Dir     string
	Bucket  string
	Prefix  string

	GCSACL         string
	GCSCredentials string

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Insecure  bool
}

// Flags returns CLI flags for cache configuration
func (c *Cache) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "cache-backend",
			Usage:       "Dependency cache backend (none, fs, gcs, s3)",
			Value:       CacheBackendNone,
			Destination: &c.Backend,
			Sources:     cli.EnvVars("CONVOY_CACHE_BACKEND"),
		},
		&cli.StringFlag{
			Name:        "cache-dir",
			Usage:       "Cache root directory for the fs backend",
			Destination: &c.Dir,
			Sources:     cli.EnvVars("CONVOY_CACHE_DIR"),
		},
		&cli.StringFlag{
			Name:        "cache-bucket",
			Usage:       "Bucket for the gcs and s3 backends",
			Destination: &c.Bucket,
			Sources:     cli.EnvVars("CONVOY_CACHE_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "cache-prefix",
			Usage:       "Object name prefix inside the bucket",
			Value:       "convoy/",
			Destination: &c.Prefix,
			Sources:     cli.EnvVars("CONVOY_CACHE_PREFIX"),
		},
		&cli.StringFlag{
			Name:        "cache-gcs-acl",
			Usage:       "Predefined ACL applied to cache objects",
			Value:       cachestore.DefaultGCSACL,
			Destination: &c.GCSACL,
			Sources:     cli.EnvVars("CONVOY_CACHE_GCS_ACL"),
		},
		&cli.StringFlag{
			Name:        "cache-gcs-credentials",
			Usage:       "Service account key file (application default credentials when empty)",
			Destination: &c.GCSCredentials,
			Sources:     cli.EnvVars("CONVOY_CACHE_GCS_CREDENTIALS"),
		},
		&cli.StringFlag{
			Name:        "cache-s3-endpoint",
			Usage:       "S3 compatible endpoint",
			Value:       "s3.amazonaws.com",
			Destination: &c.S3Endpoint,
			Sources:     cli.EnvVars("CONVOY_CACHE_S3_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:        "cache-s3-region",
			Usage:       "S3 region",
			Destination: &c.S3Region,
			Sources:     cli.EnvVars("CONVOY_CACHE_S3_REGION", "AWS_REGION"),
		},
		&cli.StringFlag{
			Name:        "cache-s3-access-key",
			Usage:       "S3 access key",
			Destination: &c.S3AccessKey,
			Sources:     cli.EnvVars("CONVOY_CACHE_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID"),
		},
		&cli.StringFlag{
			Name:        "cache-s3-secret-key",
			Usage:       "S3 secret key",
			Destination: &c.S3SecretKey,
			Sources:     cli.EnvVars("CONVOY_CACHE_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY"),
		},
		&cli.BoolFlag{
			Name:        "cache-s3-insecure",
			Usage:       "Use plain HTTP for the S3 endpoint",
			Destination: &c.S3Insecure,
			Sources:     cli.EnvVars("CONVOY_CACHE_S3_INSECURE"),
		},
	}
}

// NewStore creates the configured cache store. The none backend returns nil,
// which disables caching.
func (c *Cache) NewStore(ctx context.Context) (interfaces.CacheStore, error) {
	switch c.Backend {
	case "", CacheBackendNone:
		return nil, nil

	case CacheBackendFS:
		if c.Dir == "" {
			return nil, goerr.New("cache-dir is required for the fs backend", goerr.T(model.ErrTagInvalidInput))
		}
		return cachestore.NewFS(c.Dir), nil

	case CacheBackendGCS:
		if c.Bucket == "" {
			return nil, goerr.New("cache-bucket is required for the gcs backend", goerr.T(model.ErrTagInvalidInput))
		}
		var opts []option.ClientOption
		if c.GCSCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(c.GCSCredentials))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Cloud Storage client")
		}
		return cachestore.NewGCS(client, c.Bucket, c.Prefix, c.GCSACL), nil

	case CacheBackendS3:
		if c.Bucket == "" {
			return nil, goerr.New("cache-bucket is required for the s3 backend", goerr.T(model.ErrTagInvalidInput))
		}
		creds := credentials.NewEnvAWS()
		if c.S3AccessKey != "" {
			creds = credentials.NewStaticV4(c.S3AccessKey, c.S3SecretKey, "")
		}
		client, err := minio.New(c.S3Endpoint, &minio.Options{
			Creds:  creds,
			Secure: !c.S3Insecure,
			Region: c.S3Region,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create S3 client", goerr.V("endpoint", c.S3Endpoint))
		}
		return cachestore.NewS3(client, c.Bucket, c.Prefix), nil
	}

	return nil, goerr.New("unknown cache backend", goerr.V("backend", c.Backend), goerr.T(model.ErrTagInvalidInput))
}
