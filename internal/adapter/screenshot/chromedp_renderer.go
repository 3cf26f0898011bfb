package screenshot

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/juniorjunco/blog-pro/internal/config"
	"go.uber.org/zap"
)

// FullScreenshot encodes PNG only at quality 100, JPEG otherwise.
const pngQuality = 100

// ChromeRenderer captures pages with a headless Chrome started per request.
type ChromeRenderer struct {
	timeout     time.Duration
	settleDelay time.Duration
	execPath    string
	logger      *zap.Logger
}

func NewChromeRenderer(cfg config.ScreenshotConfig, logger *zap.Logger) *ChromeRenderer {
	return &ChromeRenderer{
		timeout:     cfg.Timeout,
		settleDelay: cfg.SettleDelay,
		execPath:    cfg.ExecPath,
		logger:      logger.Named("ChromeRenderer"),
	}
}

func (r *ChromeRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(1366, 768),
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}
	return opts
}

func (r *ChromeRenderer) actions(url string, buf *[]byte) chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.settleDelay),
		chromedp.FullScreenshot(buf, pngQuality),
	}
}

// Capture returns a PNG of the whole page once the body is ready and the
// settle delay has passed.
func (r *ChromeRenderer) Capture(ctx context.Context, url string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	started := time.Now()
	var buf []byte
	if err := chromedp.Run(browserCtx, r.actions(url, &buf)); err != nil {
		return nil, fmt.Errorf("failed to capture %s: %w", url, err)
	}

	r.logger.Debug("Screenshot captured",
		zap.String("url", url),
		zap.Int("bytes", len(buf)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return buf, nil
}
