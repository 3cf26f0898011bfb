package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/juniorjunco/blog-pro/internal/handler"
	"github.com/juniorjunco/blog-pro/internal/middleware"
	"github.com/juniorjunco/blog-pro/internal/platform/metrics"
	"go.uber.org/zap"
)

// NewsEdition binds a news handler to its route prefix, e.g. "/news".
type NewsEdition struct {
	Prefix  string
	Handler *handler.NewsHandler
}

type Handlers struct {
	User       *handler.UserHandler
	Post       *handler.PostHandler
	News       []NewsEdition
	Contact    *handler.ContactHandler
	Screenshot *handler.ScreenshotHandler
	Health     *handler.HealthHandler
}

type Options struct {
	Verifier       middleware.TokenVerifier
	Metrics        *metrics.MetricsManager
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter assembles the HTTP API. Nil handlers leave their routes out.
func NewRouter(h Handlers, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Tracing())
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}
	r.Use(cors.Handler(corsOptions(opts.AllowedOrigins)))

	auth := middleware.JWTAuth(opts.Verifier, opts.Logger)

	if h.Health != nil {
		r.Get("/health", h.Health.HandleHealth)
	}
	if h.User != nil {
		SetupUserRoutes(r, h.User)
	}
	if h.Post != nil {
		SetupPostRoutes(r, h.Post, auth)
	}
	for _, edition := range h.News {
		SetupNewsRoutes(r, edition.Prefix, edition.Handler, auth)
	}
	if h.Contact != nil {
		SetupContactRoutes(r, h.Contact, opts.RateLimiter)
	}
	if h.Screenshot != nil {
		SetupScreenshotRoutes(r, h.Screenshot, opts.RateLimiter)
	}

	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:         300,
	}
}
