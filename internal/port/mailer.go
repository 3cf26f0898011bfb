package port

import (
	"context"

	"github.com/juniorjunco/blog-pro/internal/domain"
)

type Email struct {
	To          []string
	ReplyTo     string
	Subject     string
	Body        string
	Attachments []domain.Attachment
}

type Mailer interface {
	Send(ctx context.Context, email Email) error
}
