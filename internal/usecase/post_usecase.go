package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/juniorjunco/blog-pro/internal/domain"
	"github.com/juniorjunco/blog-pro/internal/port"
	"go.uber.org/zap"
)

type PostUseCase struct {
	posts     domain.PostRepository
	users     domain.UserRepository
	publisher port.EventPublisher
	logger    *zap.Logger
}

func NewPostUseCase(posts domain.PostRepository, users domain.UserRepository, publisher port.EventPublisher, logger *zap.Logger) *PostUseCase {
	return &PostUseCase{
		posts:     posts,
		users:     users,
		publisher: publisher,
		logger:    logger.Named("PostUseCase"),
	}
}

// PostView is a post together with its owner's username.
type PostView struct {
	*domain.Post
	OwnerUsername string
}

type CreatePostInput struct {
	Title   string
	Content string
}

// UpdatePostInput holds the fields to change. Nil fields keep their value.
type UpdatePostInput struct {
	Title   *string
	Content *string
}

type voteEvent struct {
	ID       string `json:"id"`
	Counter  string `json:"counter"`
	Likes    int64  `json:"likes"`
	Dislikes int64  `json:"dislikes"`
}

func postNotFound() error {
	return domain.Errorf(domain.ErrNotFound, "Post not found")
}

func (uc *PostUseCase) CreatePost(ctx context.Context, identity domain.Identity, input CreatePostInput) (*domain.Post, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, domain.Errorf(domain.ErrValidation, "Title and content are required")
	}

	if _, err := uc.users.GetByID(ctx, identity.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Errorf(domain.ErrInvalidToken, "Token owner does not exist")
		}
		return nil, fmt.Errorf("PostUseCase.CreatePost: failed to get owner: %w", err)
	}

	now := time.Now().UTC()
	post := &domain.Post{
		Title:     title,
		Content:   content,
		OwnerID:   identity.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := uc.posts.Create(ctx, post)
	if err != nil {
		uc.logger.Error("Failed to create post in repository", zap.String("user_id", identity.UserID), zap.Error(err))
		return nil, fmt.Errorf("PostUseCase.CreatePost: failed to create post: %w", err)
	}
	post.ID = id

	publish(ctx, uc.publisher, uc.logger, port.PostCreatedSubject, newPostEvent(post))
	return post, nil
}

func (uc *PostUseCase) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	post, err := uc.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, postNotFound()
		}
		return nil, fmt.Errorf("PostUseCase.GetPost: %w", err)
	}
	return post, nil
}

// ViewPost returns a post with its owner's username. A missing owner leaves
// the username empty.
func (uc *PostUseCase) ViewPost(ctx context.Context, id string) (*PostView, error) {
	post, err := uc.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &PostView{Post: post}
	owner, err := uc.users.GetByID(ctx, post.OwnerID)
	switch {
	case err == nil:
		view.OwnerUsername = owner.Username
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("PostUseCase.ViewPost: failed to get owner: %w", err)
	}
	return view, nil
}

// ListPosts returns every post in insertion order with owner usernames
// resolved. Posts whose owner no longer exists get an empty username.
func (uc *PostUseCase) ListPosts(ctx context.Context) ([]*PostView, error) {
	posts, err := uc.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("PostUseCase.ListPosts: failed to list posts: %w", err)
	}

	ownerIDs := make([]string, 0, len(posts))
	seen := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.OwnerID]; ok {
			continue
		}
		seen[p.OwnerID] = struct{}{}
		ownerIDs = append(ownerIDs, p.OwnerID)
	}

	usernames := make(map[string]string, len(ownerIDs))
	if len(ownerIDs) > 0 {
		owners, err := uc.users.GetByIDs(ctx, ownerIDs)
		if err != nil {
			return nil, fmt.Errorf("PostUseCase.ListPosts: failed to resolve owners: %w", err)
		}
		for _, u := range owners {
			usernames[u.ID] = u.Username
		}
	}

	views := make([]*PostView, len(posts))
	for i, p := range posts {
		views[i] = &PostView{Post: p, OwnerUsername: usernames[p.OwnerID]}
	}
	return views, nil
}

// AuthorizeMutation loads the post and checks that identity owns it.
func (uc *PostUseCase) AuthorizeMutation(ctx context.Context, identity domain.Identity, id string) (*domain.Post, error) {
	post, err := uc.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureCanMutate(identity, post); err != nil {
		uc.logger.Warn("Rejected post mutation by non-owner",
			zap.String("post_id", id),
			zap.String("user_id", identity.UserID),
		)
		return nil, err
	}
	return post, nil
}

// UpdatePost changes the title and/or content of a post owned by identity.
// Ownership is checked before the input is validated.
func (uc *PostUseCase) UpdatePost(ctx context.Context, identity domain.Identity, id string, input UpdatePostInput) (*domain.Post, error) {
	post, err := uc.AuthorizeMutation(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if input.Title == nil && input.Content == nil {
		return nil, domain.Errorf(domain.ErrValidation, "Nothing to update: provide title or content")
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, domain.Errorf(domain.ErrValidation, "Title must not be empty")
		}
		post.Title = title
	}
	if input.Content != nil {
		content := strings.TrimSpace(*input.Content)
		if content == "" {
			return nil, domain.Errorf(domain.ErrValidation, "Content must not be empty")
		}
		post.Content = content
	}
	post.UpdatedAt = time.Now().UTC()

	if err := uc.posts.Update(ctx, post); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, postNotFound()
		}
		return nil, fmt.Errorf("PostUseCase.UpdatePost: failed to update post: %w", err)
	}

	publish(ctx, uc.publisher, uc.logger, port.PostUpdatedSubject, newPostEvent(post))
	return post, nil
}

func (uc *PostUseCase) DeletePost(ctx context.Context, identity domain.Identity, id string) error {
	if _, err := uc.AuthorizeMutation(ctx, identity, id); err != nil {
		return err
	}

	if err := uc.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return postNotFound()
		}
		return fmt.Errorf("PostUseCase.DeletePost: failed to delete post: %w", err)
	}

	publish(ctx, uc.publisher, uc.logger, port.PostDeletedSubject, deletedEvent{ID: id})
	return nil
}

// Vote adds one like or dislike to a post. Anyone may vote, any number of times.
func (uc *PostUseCase) Vote(ctx context.Context, id string, counter domain.Counter) (*domain.Post, error) {
	if !counter.Valid() {
		return nil, domain.Errorf(domain.ErrValidation, "Unknown counter %q", counter)
	}

	post, err := uc.posts.IncrementCounter(ctx, id, counter)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, postNotFound()
		}
		return nil, fmt.Errorf("PostUseCase.Vote: failed to increment %s: %w", counter, err)
	}

	publish(ctx, uc.publisher, uc.logger, port.PostVotedSubject, voteEvent{
		ID:       post.ID,
		Counter:  string(counter),
		Likes:    post.Likes,
		Dislikes: post.Dislikes,
	})
	return post, nil
}
