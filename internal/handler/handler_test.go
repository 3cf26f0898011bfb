package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/juniorjunco/blog-pro/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrorToHTTPStatus(t *testing.T) {
	testCases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{domain.Errorf(domain.ErrValidation, "bad"), http.StatusBadRequest},
		{domain.ErrMissingToken, http.StatusUnauthorized},
		{domain.Errorf(domain.ErrInvalidCredentials, "Invalid password"), http.StatusUnauthorized},
		{domain.ErrInvalidToken, http.StatusForbidden},
		{domain.Errorf(domain.ErrForbidden, "Unauthorized action"), http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.Errorf(domain.ErrConflict, "User already exists"), http.StatusConflict},
		{domain.Errorf(domain.ErrUpstream, "smtp down"), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, ErrorToHTTPStatus(tc.err), "%v", tc.err)
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "User already exists", errorMessage(domain.Errorf(domain.ErrConflict, "User already exists")))
	assert.Equal(t, "smtp down", errorMessage(domain.Errorf(domain.ErrUpstream, "smtp down")))
	assert.Equal(t, "Internal server error", errorMessage(fmt.Errorf("PostUseCase.ListPosts: %w", errors.New("mongo: connection refused"))))
}

func TestTargetURL(t *testing.T) {
	r := chi.NewRouter()
	var got string
	r.Get("/screenshot/*", func(w http.ResponseWriter, r *http.Request) {
		target, err := targetURL(r)
		require.NoError(t, err)
		got = target
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/screenshot/https://example.com/a?b=c", nil))
	assert.Equal(t, "https://example.com/a?b=c", got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/screenshot/https%3A%2F%2Fexample.com%2Fa", nil))
	assert.Equal(t, "https://example.com/a", got)
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(map[string]Pinger{
		"mongo": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
	}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, map[string]string{"mongo": "up", "redis": "down"}, body.Checks)
}
