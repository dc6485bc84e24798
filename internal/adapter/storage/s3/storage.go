// Package s3 stores originals, variants and annotation audio in an
// S3-compatible bucket through the minio client.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/croftbox/vidpipe/internal/infrastructure/logger"
	"github.com/croftbox/vidpipe/internal/port"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL is prepended to object keys to form servable URLs,
	// typically a CDN domain in front of the bucket.
	PublicBaseURL string
}

type Storage struct {
	client *minio.Client
	bucket string
	base   string
}

func New(cfg Config) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}
	return &Storage{
		client: client,
		bucket: cfg.Bucket,
		base:   strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

func (s *Storage) UploadOriginal(ctx context.Context, data []byte, videoID string) (string, error) {
	key := fmt.Sprintf("videos/%s/original", videoID)
	return s.put(ctx, key, data, "application/octet-stream")
}

func (s *Storage) UploadVariant(ctx context.Context, data []byte, videoID, quality string) (string, error) {
	key := fmt.Sprintf("videos/%s/variants/%s.mp4", videoID, quality)
	return s.put(ctx, key, data, "video/mp4")
}

func (s *Storage) UploadAudio(ctx context.Context, data []byte, videoID, name, contentType string) (string, error) {
	key := fmt.Sprintf("videos/%s/annotations/%s", videoID, name)
	return s.put(ctx, key, data, contentType)
}

// CleanupFailedUpload removes every object under the video's prefix.
// Individual removal errors are logged and skipped; the caller treats
// cleanup as best-effort.
func (s *Storage) CleanupFailedUpload(ctx context.Context, videoID string) error {
	prefix := fmt.Sprintf("videos/%s/", videoID)
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var lastErr error
	for obj := range objects {
		if obj.Err != nil {
			lastErr = obj.Err
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			logger.Warn.Printf("cleanup: remove %s: %v", obj.Key, err)
			lastErr = err
		}
	}
	return lastErr
}

func (s *Storage) put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.url(key), nil
}

func (s *Storage) url(key string) string {
	if s.base != "" {
		return s.base + "/" + key
	}
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL(), s.bucket, key)
}

var _ port.ObjectStorage = (*Storage)(nil)
