package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"campingrate/internal/middleware"
	"campingrate/internal/observability"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel/attribute"
)

// MinioConfig holds the parameters for connecting to an S3-compatible store.
type MinioConfig struct {
	Endpoint        string // host:port, without scheme
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
	// PublicURL is the base URL objects are served from, bucket included.
	PublicURL string
}

// MinioStore implements ImageStore on minio-go.
type MinioStore struct {
	client     *minio.Client
	bucketName string
	publicURL  string
}

// NewMinioStore creates the client. It does not contact the server; call EnsureBucket for that.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.BucketName)
	}

	return &MinioStore{
		client:     client,
		bucketName: cfg.BucketName,
		publicURL:  publicURL,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket %q: %w", s.bucketName, err)
	}
	if exists {
		return nil
	}

	middleware.Logger.InfoContext(ctx, "Creating image bucket", slog.String("bucket", s.bucketName))
	if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("failed to create bucket %q: %w", s.bucketName, err)
	}
	return nil
}

// Ping reports whether the bucket is reachable.
func (s *MinioStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

// URL returns the public URL of key.
func (s *MinioStore) URL(key string) string {
	return s.publicURL + "/" + key
}

func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) (obj StoredObject, err error) {
	ctx, span := observability.StartClientSpan(ctx, "s3", "put",
		attribute.String("s3.bucket", s.bucketName),
		attribute.String("s3.key", key),
		attribute.Int("s3.size", len(data)),
	)
	defer func() {
		observability.ImageStoreOperations.WithLabelValues("put", observability.Outcome(err)).Inc()
		observability.EndSpan(span, err)
	}()

	_, err = s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return StoredObject{}, fmt.Errorf("failed to upload %q: %w", key, err)
	}

	return StoredObject{URL: s.URL(key), Filename: key}, nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) (err error) {
	ctx, span := observability.StartClientSpan(ctx, "s3", "delete",
		attribute.String("s3.bucket", s.bucketName),
		attribute.String("s3.key", key),
	)
	defer func() {
		observability.ImageStoreOperations.WithLabelValues("delete", observability.Outcome(err)).Inc()
		observability.EndSpan(span, err)
	}()

	if err = s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		var minioErr minio.ErrorResponse
		if errors.As(err, &minioErr) && minioErr.Code == "NoSuchKey" {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}
