package usecase

import (
	"context"
	"time"

	"github.com/juniorjunco/blog-pro/internal/domain"
	"github.com/juniorjunco/blog-pro/internal/port"
	"go.uber.org/zap"
)

type deletedEvent struct {
	ID string `json:"id"`
}

type postEvent struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserID    string    `json:"userId"`
	Likes     int64     `json:"likes"`
	Dislikes  int64     `json:"dislikes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newPostEvent(p *domain.Post) postEvent {
	return postEvent{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		UserID:    p.OwnerID,
		Likes:     p.Likes,
		Dislikes:  p.Dislikes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// newsEvent carries the public image URL only; storage keys stay internal.
type newsEvent struct {
	ID          string    `json:"id"`
	Edition     string    `json:"edition"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       *string   `json:"image"`
	Date        time.Time `json:"date"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newNewsEvent(edition string, n *domain.NewsItem) newsEvent {
	e := newsEvent{
		ID:          n.ID,
		Edition:     edition,
		Title:       n.Title,
		Description: n.Description,
		Date:        n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
	if n.Image != nil {
		url := n.Image.URL
		e.Image = &url
	}
	return e
}

// publish sends an event when a publisher is configured. Failures are logged
// and never fail the calling operation.
func publish(ctx context.Context, p port.EventPublisher, logger *zap.Logger, subject string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, payload); err != nil {
		logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
