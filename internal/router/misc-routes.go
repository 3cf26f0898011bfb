package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/juniorjunco/blog-pro/internal/handler"
	"github.com/juniorjunco/blog-pro/internal/middleware"
)

// SetupContactRoutes registers the contact form. limiter may be nil.
func SetupContactRoutes(r *chi.Mux, contactHandler *handler.ContactHandler, limiter *middleware.RateLimiter) {
	r.Group(func(lr chi.Router) {
		if limiter != nil {
			lr.Use(limiter.Middleware)
		}
		lr.Post("/send-email", contactHandler.HandleSendEmail)
	})
}

// SetupScreenshotRoutes registers the page capture route. The target URL is
// the rest of the path. limiter may be nil.
func SetupScreenshotRoutes(r *chi.Mux, screenshotHandler *handler.ScreenshotHandler, limiter *middleware.RateLimiter) {
	r.Group(func(lr chi.Router) {
		if limiter != nil {
			lr.Use(limiter.Middleware)
		}
		lr.Get("/screenshot/*", screenshotHandler.HandleScreenshot)
	})
}
