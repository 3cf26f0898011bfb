package usecase

import (
	"context"
	"net/url"
	"strings"

	"github.com/juniorjunco/blog-pro/internal/domain"
	"github.com/juniorjunco/blog-pro/internal/port"
	"go.uber.org/zap"
)

type ScreenshotUseCase struct {
	renderer port.Renderer
	logger   *zap.Logger
}

func NewScreenshotUseCase(renderer port.Renderer, logger *zap.Logger) *ScreenshotUseCase {
	return &ScreenshotUseCase{
		renderer: renderer,
		logger:   logger.Named("ScreenshotUseCase"),
	}
}

// Capture renders rawURL and returns a full-page PNG. Only absolute http and
// https URLs are accepted.
func (uc *ScreenshotUseCase) Capture(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := normalizeTargetURL(rawURL)
	if err != nil {
		return nil, err
	}

	png, err := uc.renderer.Capture(ctx, target)
	if err != nil {
		uc.logger.Error("Failed to capture screenshot", zap.String("url", target), zap.Error(err))
		return nil, domain.Errorf(domain.ErrUpstream, "%v", err)
	}
	return png, nil
}

func normalizeTargetURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", domain.Errorf(domain.ErrValidation, "URL is required")
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", domain.Errorf(domain.ErrValidation, "Invalid URL: %s", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", domain.Errorf(domain.ErrValidation, "Only http and https URLs are supported")
	}
	return u.String(), nil
}
