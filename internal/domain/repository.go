package domain

import "context"

// UserRepository stores accounts. Create fails with ErrConflict when the
// username is taken.
type UserRepository interface {
	Create(ctx context.Context, user *User) (string, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*User, error)
}

// PostRepository stores posts. List returns records in insertion order.
type PostRepository interface {
	Create(ctx context.Context, post *Post) (string, error)
	GetByID(ctx context.Context, id string) (*Post, error)
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Post, error)
	// IncrementCounter adds one to the counter atomically and returns the
	// updated post.
	IncrementCounter(ctx context.Context, id string, counter Counter) (*Post, error)
}

// NewsRepository stores the news items of a single edition.
type NewsRepository interface {
	Create(ctx context.Context, item *NewsItem) (string, error)
	GetByID(ctx context.Context, id string) (*NewsItem, error)
	Update(ctx context.Context, item *NewsItem) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*NewsItem, error)
}
