package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/juniorjunco/blog-pro/internal/domain"
	"github.com/juniorjunco/blog-pro/internal/port"
	"go.uber.org/zap"
)

const defaultNewsCacheTTL = 5 * time.Minute

// NewsUseCase manages the news items of one edition. Storage, cache and
// publisher are optional.
type NewsUseCase struct {
	edition   string
	repo      domain.NewsRepository
	storage   port.ImageStorage
	cache     port.Cache
	cacheTTL  time.Duration
	publisher port.EventPublisher
	logger    *zap.Logger
}

type NewsOption func(*NewsUseCase)

func WithImageStorage(s port.ImageStorage) NewsOption {
	return func(uc *NewsUseCase) { uc.storage = s }
}

func WithCache(c port.Cache, ttl time.Duration) NewsOption {
	return func(uc *NewsUseCase) {
		uc.cache = c
		if ttl > 0 {
			uc.cacheTTL = ttl
		}
	}
}

func WithPublisher(p port.EventPublisher) NewsOption {
	return func(uc *NewsUseCase) { uc.publisher = p }
}

func NewNewsUseCase(edition string, repo domain.NewsRepository, logger *zap.Logger, opts ...NewsOption) *NewsUseCase {
	uc := &NewsUseCase{
		edition:  edition,
		repo:     repo,
		cacheTTL: defaultNewsCacheTTL,
		logger:   logger.Named("NewsUseCase").With(zap.String("edition", edition)),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type CreateNewsInput struct {
	Title       string
	Description string
	Image       *domain.ImageUpload
}

// UpdateNewsInput holds the fields to change. A nil Image keeps the current one.
type UpdateNewsInput struct {
	Title       *string
	Description *string
	Image       *domain.ImageUpload
}

func (uc *NewsUseCase) Edition() string {
	return uc.edition
}

func (uc *NewsUseCase) cacheKey(id string) string {
	return fmt.Sprintf("news:%s:%s", uc.edition, id)
}

func newsNotFound() error {
	return domain.Errorf(domain.ErrNotFound, "News not found")
}

func (uc *NewsUseCase) CreateNews(ctx context.Context, input CreateNewsInput) (*domain.NewsItem, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, domain.Errorf(domain.ErrValidation, "Title and description are required")
	}

	now := time.Now().UTC()
	item := &domain.NewsItem{
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if input.Image != nil {
		image, err := uc.uploadImage(ctx, *input.Image)
		if err != nil {
			return nil, err
		}
		item.Image = image
	}

	id, err := uc.repo.Create(ctx, item)
	if err != nil {
		uc.logger.Error("Failed to create news in repository", zap.Error(err))
		if item.Image != nil {
			uc.removeImage(ctx, item.Image.Key)
		}
		return nil, fmt.Errorf("NewsUseCase.CreateNews: failed to create news in repo: %w", err)
	}
	item.ID = id

	publish(ctx, uc.publisher, uc.logger, port.NewsSubject(uc.edition, "created"), newNewsEvent(uc.edition, item))
	return item, nil
}

// GetNews reads through the cache when one is configured.
func (uc *NewsUseCase) GetNews(ctx context.Context, id string) (*domain.NewsItem, error) {
	key := uc.cacheKey(id)
	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, key)
		if err == nil {
			var item domain.NewsItem
			unmarshalErr := json.Unmarshal(cached, &item)
			if unmarshalErr == nil {
				uc.logger.Debug("News fetched from cache", zap.String("key", key))
				return &item, nil
			}
			uc.logger.Error("Failed to unmarshal news from cache", zap.String("key", key), zap.Error(unmarshalErr))
			uc.invalidate(ctx, id)
		} else if !errors.Is(err, port.ErrCacheMiss) {
			uc.logger.Warn("Failed to get news from cache", zap.String("key", key), zap.Error(err))
		}
	}

	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, newsNotFound()
		}
		uc.logger.Error("Failed to get news by ID from repository", zap.String("news_id", id), zap.Error(err))
		return nil, fmt.Errorf("NewsUseCase.GetNews: %w", err)
	}

	if uc.cache != nil {
		if data, marshalErr := json.Marshal(item); marshalErr == nil {
			if setErr := uc.cache.Set(ctx, key, data, uc.cacheTTL); setErr != nil {
				uc.logger.Warn("Failed to set news in cache", zap.String("key", key), zap.Error(setErr))
			}
		}
	}
	return item, nil
}

func (uc *NewsUseCase) ListNews(ctx context.Context) ([]*domain.NewsItem, error) {
	items, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewsUseCase.ListNews: %w", err)
	}
	return items, nil
}

// UpdateNews applies a partial update. A replaced image is removed from the
// storage once the record points at the new one.
func (uc *NewsUseCase) UpdateNews(ctx context.Context, id string, input UpdateNewsInput) (*domain.NewsItem, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, newsNotFound()
		}
		return nil, fmt.Errorf("NewsUseCase.UpdateNews: failed to get news: %w", err)
	}

	if input.Title == nil && input.Description == nil && input.Image == nil {
		return nil, domain.Errorf(domain.ErrValidation, "Nothing to update: provide title, description or image")
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, domain.Errorf(domain.ErrValidation, "Title must not be empty")
		}
		item.Title = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, domain.Errorf(domain.ErrValidation, "Description must not be empty")
		}
		item.Description = description
	}

	var replaced *domain.Image
	if input.Image != nil {
		image, err := uc.uploadImage(ctx, *input.Image)
		if err != nil {
			return nil, err
		}
		replaced = item.Image
		item.Image = image
	}
	item.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, item); err != nil {
		if input.Image != nil {
			uc.removeImage(ctx, item.Image.Key)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, newsNotFound()
		}
		return nil, fmt.Errorf("NewsUseCase.UpdateNews: failed to update news: %w", err)
	}

	if replaced != nil {
		uc.removeImage(ctx, replaced.Key)
	}
	uc.invalidate(ctx, id)

	publish(ctx, uc.publisher, uc.logger, port.NewsSubject(uc.edition, "updated"), newNewsEvent(uc.edition, item))
	return item, nil
}

func (uc *NewsUseCase) DeleteNews(ctx context.Context, id string) error {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return newsNotFound()
		}
		return fmt.Errorf("NewsUseCase.DeleteNews: failed to get news: %w", err)
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return newsNotFound()
		}
		return fmt.Errorf("NewsUseCase.DeleteNews: failed to delete news: %w", err)
	}

	if item.Image != nil {
		uc.removeImage(ctx, item.Image.Key)
	}
	uc.invalidate(ctx, id)

	publish(ctx, uc.publisher, uc.logger, port.NewsSubject(uc.edition, "deleted"), deletedEvent{ID: id})
	return nil
}

// OpenImage returns the stored bytes of the item's image. The caller closes
// the reader.
func (uc *NewsUseCase) OpenImage(ctx context.Context, id string) (io.ReadCloser, *domain.Image, error) {
	item, err := uc.GetNews(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if item.Image == nil {
		return nil, nil, domain.Errorf(domain.ErrNotFound, "Image not found")
	}
	if uc.storage == nil {
		return nil, nil, domain.Errorf(domain.ErrUpstream, "Image storage is not configured")
	}

	rc, err := uc.storage.Open(ctx, item.Image.Key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.Errorf(domain.ErrNotFound, "Image not found")
		}
		return nil, nil, domain.Errorf(domain.ErrUpstream, "failed to read image: %v", err)
	}
	return rc, item.Image, nil
}

func (uc *NewsUseCase) uploadImage(ctx context.Context, upload domain.ImageUpload) (*domain.Image, error) {
	if len(upload.Data) == 0 {
		return nil, domain.Errorf(domain.ErrValidation, "Image file is empty")
	}
	if uc.storage == nil {
		return nil, domain.Errorf(domain.ErrUpstream, "Image storage is not configured")
	}

	image, err := uc.storage.Upload(ctx, upload)
	if err != nil {
		uc.logger.Error("Failed to upload news image", zap.String("filename", upload.Filename), zap.Error(err))
		return nil, domain.Errorf(domain.ErrUpstream, "failed to upload image: %v", err)
	}
	return image, nil
}

func (uc *NewsUseCase) removeImage(ctx context.Context, key string) {
	if uc.storage == nil || key == "" {
		return
	}
	if err := uc.storage.Remove(ctx, key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		uc.logger.Warn("Failed to remove news image", zap.String("key", key), zap.Error(err))
	}
}

func (uc *NewsUseCase) invalidate(ctx context.Context, id string) {
	if uc.cache == nil {
		return
	}
	key := uc.cacheKey(id)
	if err := uc.cache.Delete(ctx, key); err != nil {
		uc.logger.Warn("Failed to delete news from cache", zap.String("key", key), zap.Error(err))
	}
}
