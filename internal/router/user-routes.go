package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/juniorjunco/blog-pro/internal/handler"
)

// SetupUserRoutes registers the public account routes.
func SetupUserRoutes(r *chi.Mux, userHandler *handler.UserHandler) {
	r.Post("/signup", userHandler.HandleSignUp)
	r.Post("/login", userHandler.HandleLogin)
}
