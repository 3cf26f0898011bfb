package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/juniorjunco/blog-pro/internal/config"
	"github.com/juniorjunco/blog-pro/internal/port"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var ErrIncompleteConfig = errors.New("SMTP configuration is incomplete")

type SMTPSender struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
	logger *zap.Logger
}

func NewSMTPSender(cfg config.SMTPConfig, logger *zap.Logger) *SMTPSender {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	switch strings.ToLower(cfg.Encryption) {
	case "ssl":
		dialer.SSL = true
		dialer.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	case "tls", "starttls":
		dialer.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}

	return &SMTPSender{
		cfg:    cfg,
		dialer: dialer,
		logger: logger.Named("SMTPSender"),
	}
}

func (s *SMTPSender) configured() bool {
	return s.cfg.Host != "" && s.cfg.Port != 0 && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.SenderEmail != ""
}

// buildMessage composes a plain text email with in-memory attachments.
func (s *SMTPSender) buildMessage(e port.Email) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.SenderEmail)
	m.SetHeader("To", e.To...)
	if e.ReplyTo != "" {
		m.SetHeader("Reply-To", e.ReplyTo)
	}
	m.SetHeader("Subject", e.Subject)
	m.SetBody("text/plain", e.Body)

	for _, a := range e.Attachments {
		data := a.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {a.ContentType},
			}))
		}
		m.Attach(a.Filename, settings...)
	}
	return m
}

// Send delivers the email. Dialing runs in its own goroutine so that a
// cancelled context returns promptly.
func (s *SMTPSender) Send(ctx context.Context, e port.Email) error {
	if !s.configured() {
		s.logger.Error("SMTP configuration is incomplete. Email not sent.",
			zap.String("host", s.cfg.Host),
			zap.String("username", s.cfg.Username),
			zap.Bool("password_set", s.cfg.Password != ""),
			zap.String("sender", s.cfg.SenderEmail))
		return ErrIncompleteConfig
	}
	if len(e.To) == 0 {
		return fmt.Errorf("no recipients provided for email")
	}

	m := s.buildMessage(e)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		s.logger.Warn("Email sending cancelled", zap.Strings("to", e.To), zap.Error(ctx.Err()))
		return fmt.Errorf("email sending cancelled or timed out: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			s.logger.Error("Failed to send email", zap.Strings("to", e.To), zap.String("subject", e.Subject), zap.Error(err))
			return fmt.Errorf("failed to send email: %w", err)
		}
	}

	s.logger.Info("Email sent successfully", zap.Strings("to", e.To), zap.Int("attachments", len(e.Attachments)))
	return nil
}
