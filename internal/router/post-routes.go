package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/juniorjunco/blog-pro/internal/handler"
)

// SetupPostRoutes registers the post routes. Reads and votes are public;
// writes go through auth.
func SetupPostRoutes(r *chi.Mux, postHandler *handler.PostHandler, auth func(http.Handler) http.Handler) {
	r.Get("/posts", postHandler.HandleListPosts)
	r.Get("/posts/{id}", postHandler.HandleGetPost)
	r.Post("/posts/{id}/like", postHandler.HandleLike)
	r.Post("/posts/{id}/dislike", postHandler.HandleDislike)

	r.Group(func(authRouter chi.Router) {
		authRouter.Use(auth)

		authRouter.Post("/posts", postHandler.HandleCreatePost)
		authRouter.Put("/posts/{id}", postHandler.HandleUpdatePost)
		authRouter.Delete("/posts/{id}", postHandler.HandleDeletePost)
	})
}
