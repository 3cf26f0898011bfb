package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/juniorjunco/blog-pro/internal/handler"
)

// SetupNewsRoutes registers the routes of one news edition under prefix.
// Writes need a valid token but no ownership; "/news" serves its images at
// "/news/image/{id}".
func SetupNewsRoutes(r *chi.Mux, prefix string, newsHandler *handler.NewsHandler, auth func(http.Handler) http.Handler) {
	r.Route(prefix, func(nr chi.Router) {
		nr.Get("/", newsHandler.HandleListNews)
		nr.Get("/image/{id}", newsHandler.HandleGetImage)
		nr.Get("/{id}", newsHandler.HandleGetNews)

		nr.Group(func(authRouter chi.Router) {
			authRouter.Use(auth)

			authRouter.Post("/", newsHandler.HandleCreateNews)
			authRouter.Put("/{id}", newsHandler.HandleUpdateNews)
			authRouter.Delete("/{id}", newsHandler.HandleDeleteNews)
		})
	})
}
