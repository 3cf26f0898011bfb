package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/juniorjunco/blog-pro/internal/adapter/memory"
	"github.com/juniorjunco/blog-pro/internal/domain"
	"github.com/juniorjunco/blog-pro/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pngUpload(name string) *domain.ImageUpload {
	return &domain.ImageUpload{Filename: name, ContentType: "image/png", Data: []byte("\x89PNG " + name)}
}

func TestNewsUseCase_CreateWithoutImage(t *testing.T) {
	ctx := context.Background()
	uc := NewNewsUseCase("es", memory.NewNewsRepository(), zap.NewNop())

	item, err := uc.CreateNews(ctx, CreateNewsInput{Title: "Title", Description: "Body"})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Nil(t, item.Image)

	_, _, err = uc.OpenImage(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.CreateNews(ctx, CreateNewsInput{Title: "Title"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.CreateNews(ctx, CreateNewsInput{Title: "Title", Description: "Body", Image: pngUpload("a.png")})
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.EqualError(t, err, "Image storage is not configured")
}

func TestNewsUseCase_ImageLifecycle(t *testing.T) {
	ctx := context.Background()
	images := memory.NewImageStorage("http://cdn.local")
	uc := NewNewsUseCase("es", memory.NewNewsRepository(), zap.NewNop(), WithImageStorage(images))

	item, err := uc.CreateNews(ctx, CreateNewsInput{Title: "T", Description: "D", Image: pngUpload("first.png")})
	require.NoError(t, err)
	require.NotNil(t, item.Image)
	assert.Contains(t, item.Image.URL, "http://cdn.local/")

	rc, image, err := uc.OpenImage(ctx, item.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "\x89PNG first.png", string(data))
	assert.Equal(t, "image/png", image.ContentType)

	_, err = uc.CreateNews(ctx, CreateNewsInput{Title: "T", Description: "D", Image: &domain.ImageUpload{Filename: "empty.png"}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	updated, err := uc.UpdateNews(ctx, item.ID, UpdateNewsInput{Image: pngUpload("second.png")})
	require.NoError(t, err)
	assert.NotEqual(t, item.Image.Key, updated.Image.Key)
	assert.Equal(t, "T", updated.Title)
	assert.Equal(t, 1, images.Len())

	rc, _, err = uc.OpenImage(ctx, item.ID)
	require.NoError(t, err)
	data, err = io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "\x89PNG second.png", string(data))

	require.NoError(t, uc.DeleteNews(ctx, item.ID))
	assert.Equal(t, 0, images.Len())
	_, err = uc.GetNews(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, uc.DeleteNews(ctx, item.ID), domain.ErrNotFound)
}

func TestNewsUseCase_UpdateNews(t *testing.T) {
	ctx := context.Background()
	uc := NewNewsUseCase("en", memory.NewNewsRepository(), zap.NewNop())
	item, err := uc.CreateNews(ctx, CreateNewsInput{Title: "T", Description: "D"})
	require.NoError(t, err)

	_, err = uc.UpdateNews(ctx, item.ID, UpdateNewsInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = uc.UpdateNews(ctx, item.ID, UpdateNewsInput{Title: strPtr(" ")})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = uc.UpdateNews(ctx, "missing", UpdateNewsInput{Title: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := uc.UpdateNews(ctx, item.ID, UpdateNewsInput{Description: strPtr("New")})
	require.NoError(t, err)
	assert.Equal(t, "T", updated.Title)
	assert.Equal(t, "New", updated.Description)

	list, err := uc.ListNews(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "New", list[0].Description)
}

func TestNewsUseCase_CacheReadThroughAndInvalidation(t *testing.T) {
	ctx := context.Background()
	cache := new(MockCache)
	publisher := new(MockPublisher)
	uc := NewNewsUseCase("es", memory.NewNewsRepository(), zap.NewNop(),
		WithCache(cache, time.Minute),
		WithPublisher(publisher),
	)

	publisher.On("Publish", ctx, port.NewsSubject("es", "created"), mock.MatchedBy(func(e newsEvent) bool {
		return e.Edition == "es" && e.Title == "T" && e.Image == nil
	})).Return(nil).Once()
	item, err := uc.CreateNews(ctx, CreateNewsInput{Title: "T", Description: "D"})
	require.NoError(t, err)
	key := "news:es:" + item.ID

	t.Run("miss populates the cache", func(t *testing.T) {
		cache.On("Get", ctx, key).Return(nil, port.ErrCacheMiss).Once()
		cache.On("Set", ctx, key, mock.Anything, time.Minute).Return(nil).Once()

		got, err := uc.GetNews(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "T", got.Title)
		cache.AssertExpectations(t)
	})

	t.Run("hit is served from the cache", func(t *testing.T) {
		cached := *item
		cached.Title = "From cache"
		data, err := json.Marshal(cached)
		require.NoError(t, err)
		cache.On("Get", ctx, key).Return(data, nil).Once()

		got, err := uc.GetNews(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "From cache", got.Title)
		cache.AssertExpectations(t)
	})

	t.Run("cache failure falls back to the repository", func(t *testing.T) {
		cache.On("Get", ctx, key).Return(nil, errors.New("redis: connection refused")).Once()
		cache.On("Set", ctx, key, mock.Anything, time.Minute).Return(errors.New("redis: connection refused")).Once()

		got, err := uc.GetNews(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "T", got.Title)
		cache.AssertExpectations(t)
	})

	t.Run("update and delete invalidate", func(t *testing.T) {
		cache.On("Delete", ctx, key).Return(nil).Twice()
		publisher.On("Publish", ctx, port.NewsSubject("es", "updated"), mock.MatchedBy(func(e newsEvent) bool {
			return e.ID == item.ID && e.Title == "T2"
		})).Return(nil).Once()
		publisher.On("Publish", ctx, port.NewsSubject("es", "deleted"), deletedEvent{ID: item.ID}).Return(nil).Once()

		_, err := uc.UpdateNews(ctx, item.ID, UpdateNewsInput{Title: strPtr("T2")})
		require.NoError(t, err)
		require.NoError(t, uc.DeleteNews(ctx, item.ID))

		cache.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})
}
