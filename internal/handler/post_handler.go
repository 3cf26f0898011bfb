package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/juniorjunco/blog-pro/internal/domain"
	"github.com/juniorjunco/blog-pro/internal/middleware"
	"github.com/juniorjunco/blog-pro/internal/platform/metrics"
	"github.com/juniorjunco/blog-pro/internal/usecase"
	"go.uber.org/zap"
)

type PostHandler struct {
	posts   *usecase.PostUseCase
	metrics *metrics.MetricsManager
	logger  *zap.Logger
}

// NewPostHandler builds the post handler. m may be nil.
func NewPostHandler(posts *usecase.PostUseCase, m *metrics.MetricsManager, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		posts:   posts,
		metrics: m,
		logger:  logger.Named("PostHTTPHandler"),
	}
}

type postRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type postOwner struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

type postResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	User      postOwner `json:"user"`
	Likes     int64     `json:"likes"`
	Dislikes  int64     `json:"dislikes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type voteResponse struct {
	Message  string `json:"message"`
	Likes    int64  `json:"likes"`
	Dislikes int64  `json:"dislikes"`
}

func toPostResponse(p *domain.Post, username string) postResponse {
	return postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		User:      postOwner{ID: p.OwnerID, Username: username},
		Likes:     p.Likes,
		Dislikes:  p.Dislikes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func identityOrReject(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "No token provided", http.StatusUnauthorized)
	}
	return identity, ok
}

func (h *PostHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("Failed to decode request body for CreatePost", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	input := usecase.CreatePostInput{}
	if req.Title != nil {
		input.Title = *req.Title
	}
	if req.Content != nil {
		input.Content = *req.Content
	}

	post, err := h.posts.CreatePost(r.Context(), identity, input)
	if err != nil {
		writeError(w, h.logger, "Failed to create post", err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, toPostResponse(post, identity.Username))
}

func (h *PostHandler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	views, err := h.posts.ListPosts(r.Context())
	if err != nil {
		writeError(w, h.logger, "Failed to list posts", err)
		return
	}

	resp := make([]postResponse, len(views))
	for i, v := range views {
		resp[i] = toPostResponse(v.Post, v.OwnerUsername)
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *PostHandler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := h.posts.ViewPost(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "Failed to get post", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toPostResponse(view.Post, view.OwnerUsername))
}

// HandleUpdatePost checks ownership before reading the body, so a non-owner
// is refused whatever the payload.
func (h *PostHandler) HandleUpdatePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if _, err := h.posts.AuthorizeMutation(r.Context(), identity, id); err != nil {
		writeError(w, h.logger, "Post update rejected", err)
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("Failed to decode request body for UpdatePost", zap.String("id", id), zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	post, err := h.posts.UpdatePost(r.Context(), identity, id, usecase.UpdatePostInput{Title: req.Title, Content: req.Content})
	if err != nil {
		writeError(w, h.logger, "Failed to update post", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toPostResponse(post, identity.Username))
}

func (h *PostHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.posts.DeletePost(r.Context(), identity, id); err != nil {
		writeError(w, h.logger, "Failed to delete post", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, messageResponse{Message: "Post deleted successfully"})
}

func (h *PostHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, domain.CounterLikes, "Like added successfully")
}

func (h *PostHandler) HandleDislike(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, domain.CounterDislikes, "Dislike added successfully")
}

func (h *PostHandler) vote(w http.ResponseWriter, r *http.Request, counter domain.Counter, message string) {
	id := chi.URLParam(r, "id")
	post, err := h.posts.Vote(r.Context(), id, counter)
	if err != nil {
		writeError(w, h.logger, "Failed to record vote", err)
		return
	}
	if h.metrics != nil {
		h.metrics.PostVotesTotal.WithLabelValues(string(counter)).Inc()
	}
	writeJSON(w, h.logger, http.StatusOK, voteResponse{Message: message, Likes: post.Likes, Dislikes: post.Dislikes})
}
