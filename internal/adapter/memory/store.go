// Package memory holds process-local implementations of the repositories and
// the image storage. They back the "memory" database driver and tests.
package memory

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/juniorjunco/blog-pro/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newID() string {
	return primitive.NewObjectID().Hex()
}

type UserRepository struct {
	mu         sync.RWMutex
	byID       map[string]domain.User
	byUsername map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]domain.User),
		byUsername: make(map[string]string),
	}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[user.Username]; taken {
		return "", domain.ErrConflict
	}
	u := *user
	u.ID = newID()
	r.byID[u.ID] = u
	r.byUsername[u.Username] = u.ID
	return u.ID, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *UserRepository) GetByIDs(_ context.Context, ids []string) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			users = append(users, &u)
		}
	}
	return users, nil
}

type PostRepository struct {
	mu    sync.Mutex
	order []string
	posts map[string]domain.Post
}

func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[string]domain.Post)}
}

func (r *PostRepository) Create(_ context.Context, post *domain.Post) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := *post
	p.ID = newID()
	r.posts[p.ID] = p
	r.order = append(r.order, p.ID)
	return p.ID, nil
}

func (r *PostRepository) GetByID(_ context.Context, id string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// Update writes title, content and updated_at. Counters are left untouched so
// concurrent votes are not lost.
func (r *PostRepository) Update(_ context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[post.ID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Title = post.Title
	p.Content = post.Content
	p.UpdatedAt = post.UpdatedAt
	r.posts[p.ID] = p
	return nil
}

func (r *PostRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.posts, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *PostRepository) List(_ context.Context) ([]*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	posts := make([]*domain.Post, 0, len(r.order))
	for _, id := range r.order {
		p := r.posts[id]
		posts = append(posts, &p)
	}
	return posts, nil
}

func (r *PostRepository) IncrementCounter(_ context.Context, id string, counter domain.Counter) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	switch counter {
	case domain.CounterLikes:
		p.Likes++
	case domain.CounterDislikes:
		p.Dislikes++
	default:
		return nil, domain.ErrValidation
	}
	r.posts[id] = p
	return &p, nil
}

type NewsRepository struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.NewsItem
}

func NewNewsRepository() *NewsRepository {
	return &NewsRepository{items: make(map[string]domain.NewsItem)}
}

func copyNews(item domain.NewsItem) *domain.NewsItem {
	if item.Image != nil {
		img := *item.Image
		item.Image = &img
	}
	return &item
}

func (r *NewsRepository) Create(_ context.Context, item *domain.NewsItem) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := *copyNews(*item)
	n.ID = newID()
	r.items[n.ID] = n
	r.order = append(r.order, n.ID)
	return n.ID, nil
}

func (r *NewsRepository) GetByID(_ context.Context, id string) (*domain.NewsItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyNews(n), nil
}

func (r *NewsRepository) Update(_ context.Context, item *domain.NewsItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.ID]
	if !ok {
		return domain.ErrNotFound
	}
	n := *copyNews(*item)
	n.CreatedAt = existing.CreatedAt
	r.items[n.ID] = n
	return nil
}

func (r *NewsRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *NewsRepository) List(_ context.Context) ([]*domain.NewsItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*domain.NewsItem, 0, len(r.order))
	for _, id := range r.order {
		items = append(items, copyNews(r.items[id]))
	}
	return items, nil
}

type storedImage struct {
	contentType string
	data        []byte
}

// ImageStorage keeps images in memory and serves them under baseURL.
type ImageStorage struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]storedImage
}

func NewImageStorage(baseURL string) *ImageStorage {
	return &ImageStorage{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]storedImage),
	}
}

func (s *ImageStorage) Upload(_ context.Context, upload domain.ImageUpload) (*domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := "news/" + newID()
	data := append([]byte(nil), upload.Data...)
	s.objects[key] = storedImage{contentType: upload.ContentType, data: data}

	return &domain.Image{
		URL:         s.baseURL + "/" + key,
		Key:         key,
		ContentType: upload.ContentType,
		Size:        int64(len(data)),
	}, nil
}

func (s *ImageStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *ImageStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return domain.ErrNotFound
	}
	delete(s.objects, key)
	return nil
}

// Len returns the number of stored objects.
func (s *ImageStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
