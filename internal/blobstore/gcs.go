package blobstore

import (
	"context"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/semai/wildscan-go/internal/conf"
	"github.com/semai/wildscan-go/internal/errors"
)

// GCSGateway stores scan photos in a Google Cloud Storage bucket under a
// fixed base path.
type GCSGateway struct {
	bucketName string
	basePath   string
	client     *storage.Client
}

// NewGCSGateway creates a gateway for the configured bucket. Credentials may
// be empty, in which case application default credentials are used.
func NewGCSGateway(ctx context.Context, settings *conf.Settings) (*GCSGateway, error) {
	cfg := settings.Storage.GCS
	if cfg.Bucket == "" {
		return nil, errors.Newf("gcs bucket name is required").
			Category(errors.CategoryConfiguration).
			Component("blobstore").
			Build()
	}

	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Newf("failed to create storage client: %w", err).
			Category(errors.CategoryObjectStorage).
			Component("blobstore").
			Context("bucket", cfg.Bucket).
			Build()
	}

	basePath := strings.TrimRight(cfg.BasePath, "/")
	if basePath == "" {
		basePath = "scanned-species"
	}

	return &GCSGateway{
		bucketName: cfg.Bucket,
		basePath:   basePath,
		client:     client,
	}, nil
}

func (g *GCSGateway) object(key string) *storage.ObjectHandle {
	return g.client.Bucket(g.bucketName).Object(path.Join(g.basePath, key))
}

// Put uploads data under key.
func (g *GCSGateway) Put(ctx context.Context, key string, data []byte, contentType string) error {
	writer := g.object(key).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return errors.Newf("failed to write object: %w", err).
			Category(errors.CategoryObjectStorage).
			Component("blobstore").
			Context("bucket", g.bucketName).
			Context("key", key).
			Build()
	}
	if err := writer.Close(); err != nil {
		return errors.Newf("failed to finalize object: %w", err).
			Category(errors.CategoryObjectStorage).
			Component("blobstore").
			Context("bucket", g.bucketName).
			Context("key", key).
			Build()
	}
	return nil
}

// Get downloads the object stored under key.
func (g *GCSGateway) Get(ctx context.Context, key string) ([]byte, string, error) {
	reader, err := g.object(key).NewReader(ctx)
	if err != nil {
		category := errors.CategoryObjectStorage
		if errors.Is(err, storage.ErrObjectNotExist) {
			category = errors.CategoryNotFound
		}
		return nil, "", errors.Newf("failed to open object: %w", err).
			Category(category).
			Component("blobstore").
			Context("key", key).
			Build()
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", errors.Newf("failed to read object: %w", err).
			Category(errors.CategoryObjectStorage).
			Component("blobstore").
			Context("key", key).
			Build()
	}
	return data, reader.Attrs.ContentType, nil
}

// Exists reports whether key is present in the bucket.
func (g *GCSGateway) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.object(key).Attrs(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrObjectNotExist):
		return false, nil
	default:
		return false, errors.Newf("failed to stat object: %w", err).
			Category(errors.CategoryObjectStorage).
			Component("blobstore").
			Context("key", key).
			Build()
	}
}

// Close releases the storage client.
func (g *GCSGateway) Close() error {
	return g.client.Close()
}
