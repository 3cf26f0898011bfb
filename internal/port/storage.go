package port

import (
	"context"
	"io"

	"github.com/juniorjunco/blog-pro/internal/domain"
)

// ImageStorage keeps uploaded images and returns a durable reference to them.
// Open and Remove return domain.ErrNotFound for unknown keys.
type ImageStorage interface {
	Upload(ctx context.Context, upload domain.ImageUpload) (*domain.Image, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}
