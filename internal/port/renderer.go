package port

import "context"

// Renderer loads a page and captures it as a full-page PNG.
type Renderer interface {
	Capture(ctx context.Context, url string) ([]byte, error)
}
