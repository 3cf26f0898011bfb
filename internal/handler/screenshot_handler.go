package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/juniorjunco/blog-pro/internal/domain"
	"github.com/juniorjunco/blog-pro/internal/platform/metrics"
	"github.com/juniorjunco/blog-pro/internal/usecase"
	"go.uber.org/zap"
)

type ScreenshotHandler struct {
	screenshots *usecase.ScreenshotUseCase
	metrics     *metrics.MetricsManager
	logger      *zap.Logger
}

// NewScreenshotHandler builds the screenshot handler. m may be nil.
func NewScreenshotHandler(screenshots *usecase.ScreenshotUseCase, m *metrics.MetricsManager, logger *zap.Logger) *ScreenshotHandler {
	return &ScreenshotHandler{
		screenshots: screenshots,
		metrics:     m,
		logger:      logger.Named("ScreenshotHTTPHandler"),
	}
}

// targetURL recovers the page URL from the wildcard path segment. Both
// percent-encoded and raw forms are accepted; the request query string
// belongs to the target.
func targetURL(r *http.Request) (string, error) {
	raw, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		return "", domain.Errorf(domain.ErrValidation, "Invalid URL encoding")
	}
	if r.URL.RawQuery != "" {
		raw += "?" + r.URL.RawQuery
	}
	return raw, nil
}

func (h *ScreenshotHandler) HandleScreenshot(w http.ResponseWriter, r *http.Request) {
	target, err := targetURL(r)
	if err != nil {
		writeError(w, h.logger, "Rejected screenshot URL", err)
		return
	}

	png, err := h.screenshots.Capture(r.Context(), target)
	if h.metrics != nil && !errors.Is(err, domain.ErrValidation) {
		h.metrics.ScreenshotsTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	}
	if err != nil {
		writeError(w, h.logger, "Failed to capture screenshot", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.logger.Warn("Failed to write screenshot", zap.String("url", target), zap.Error(err))
	}
}
