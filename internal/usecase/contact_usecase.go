package usecase

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/juniorjunco/blog-pro/internal/domain"
	"github.com/juniorjunco/blog-pro/internal/port"
	"go.uber.org/zap"
)

type ContactUseCase struct {
	mailer         port.Mailer
	recipient      string
	subject        string
	maxAttachments int
	publisher      port.EventPublisher
	logger         *zap.Logger
}

func NewContactUseCase(mailer port.Mailer, recipient, subject string, maxAttachments int, publisher port.EventPublisher, logger *zap.Logger) *ContactUseCase {
	return &ContactUseCase{
		mailer:         mailer,
		recipient:      recipient,
		subject:        subject,
		maxAttachments: maxAttachments,
		publisher:      publisher,
		logger:         logger.Named("ContactUseCase"),
	}
}

type contactEvent struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Attachments int    `json:"attachments"`
}

// Validate checks that every form field is present and the attachment count
// is within the limit.
func (uc *ContactUseCase) Validate(req domain.ContactRequest) error {
	fields := []struct {
		name  string
		value string
	}{
		{"nome", req.Name},
		{"email", req.Email},
		{"telefone", req.Phone},
		{"claridadFormato", req.FormatClarity},
		{"flowIdea", req.FlowIdea},
		{"fechaEntrega", req.DeliveryDate},
	}

	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return domain.Errorf(domain.ErrValidation, "Missing required fields: %s", strings.Join(missing, ", "))
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		return domain.Errorf(domain.ErrValidation, "Invalid email address")
	}
	if len(req.Attachments) > uc.maxAttachments {
		return domain.Errorf(domain.ErrValidation, "At most %d images may be attached", uc.maxAttachments)
	}
	return nil
}

// Submit forwards a contact request by email to the configured recipient.
// The submitter's address is used as Reply-To.
func (uc *ContactUseCase) Submit(ctx context.Context, req domain.ContactRequest) error {
	if err := uc.Validate(req); err != nil {
		return err
	}
	if uc.recipient == "" {
		return domain.Errorf(domain.ErrUpstream, "Contact recipient is not configured")
	}

	email := port.Email{
		To:          []string{uc.recipient},
		ReplyTo:     req.Email,
		Subject:     uc.subject,
		Body:        contactBody(req),
		Attachments: req.Attachments,
	}

	if err := uc.mailer.Send(ctx, email); err != nil {
		uc.logger.Error("Failed to send contact email", zap.String("from", req.Email), zap.Error(err))
		return domain.Errorf(domain.ErrUpstream, "%v", err)
	}

	uc.logger.Info("Contact email sent",
		zap.String("from", req.Email),
		zap.Int("attachments", len(req.Attachments)),
	)
	publish(ctx, uc.publisher, uc.logger, port.ContactSubmittedSubject, contactEvent{
		Name:        req.Name,
		Email:       req.Email,
		Attachments: len(req.Attachments),
	})
	return nil
}

func contactBody(req domain.ContactRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Nombre: %s\n", req.Name)
	fmt.Fprintf(&b, "Email: %s\n", req.Email)
	fmt.Fprintf(&b, "Teléfono: %s\n", req.Phone)
	fmt.Fprintf(&b, "Claridad del formato: %s\n", req.FormatClarity)
	fmt.Fprintf(&b, "Idea del flujo: %s\n", req.FlowIdea)
	fmt.Fprintf(&b, "Fecha de entrega: %s\n", req.DeliveryDate)
	return b.String()
}
