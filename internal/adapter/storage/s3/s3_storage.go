package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/juniorjunco/blog-pro/internal/config"
	"github.com/juniorjunco/blog-pro/internal/domain"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Storage keeps news images in an S3 compatible bucket.
type Storage struct {
	client *minio.Client
	bucket string
	prefix string
	logger *zap.Logger
}

func NewStorage(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (*Storage, error) {
	logger = logger.Named("S3Storage")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}

	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, cfg.Bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: (make: %v / exists_check: %v)", cfg.Bucket, err, existsErr)
		}
		logger.Info("Bucket already exists", zap.String("bucket", cfg.Bucket))
	} else {
		logger.Info("Bucket created", zap.String("bucket", cfg.Bucket))
	}

	return &Storage{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: logger,
	}, nil
}

func (s *Storage) objectKey(filename string) string {
	key := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *Storage) Upload(ctx context.Context, upload domain.ImageUpload) (*domain.Image, error) {
	contentType := upload.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(upload.Data)
	}
	key := s.objectKey(upload.Filename)

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(upload.Data), int64(len(upload.Data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"original-filename": upload.Filename},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object %s to bucket %s: %w", key, s.bucket, err)
	}

	url := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, key)
	s.logger.Info("Image uploaded",
		zap.String("key", info.Key),
		zap.Int64("size", info.Size),
		zap.String("url", url),
	)

	return &domain.Image{
		URL:         url,
		Key:         key,
		ContentType: contentType,
		Size:        info.Size,
	}, nil
}

// Open returns a reader over the object. GetObject is lazy, so the object is
// stat'ed first to surface a missing key.
func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	return obj, nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
