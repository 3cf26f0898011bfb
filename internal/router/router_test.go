package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/juniorjunco/blog-pro/internal/adapter/memory"
	"github.com/juniorjunco/blog-pro/internal/auth"
	"github.com/juniorjunco/blog-pro/internal/handler"
	"github.com/juniorjunco/blog-pro/internal/middleware"
	"github.com/juniorjunco/blog-pro/internal/platform/metrics"
	"github.com/juniorjunco/blog-pro/internal/port"
	"github.com/juniorjunco/blog-pro/internal/usecase"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []port.Email
	err  error
}

func (m *fakeMailer) Send(_ context.Context, email port.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

type fakeRenderer struct {
	mu   sync.Mutex
	urls []string
	err  error
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

func (r *fakeRenderer) Capture(_ context.Context, url string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	if r.err != nil {
		return nil, r.err
	}
	return pngBytes, nil
}

type testEnv struct {
	router   *chi.Mux
	mailer   *fakeMailer
	renderer *fakeRenderer
	images   *memory.ImageStorage
	metrics  *metrics.MetricsManager
}

func newTestEnv(t *testing.T, limiter *middleware.RateLimiter) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	users := memory.NewUserRepository()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	images := memory.NewImageStorage("http://images.local")
	mailer := &fakeMailer{}
	renderer := &fakeRenderer{}
	m := metrics.NewMetricsManager("test")

	userUC := usecase.NewUserUseCase(users, tokens, logger)
	postUC := usecase.NewPostUseCase(memory.NewPostRepository(), users, nil, logger)
	newsES := usecase.NewNewsUseCase("es", memory.NewNewsRepository(), logger, usecase.WithImageStorage(images))
	newsEN := usecase.NewNewsUseCase("en", memory.NewNewsRepository(), logger, usecase.WithImageStorage(images))
	contactUC := usecase.NewContactUseCase(mailer, "owner@example.com", "Contact", 5, nil, logger)
	screenshotUC := usecase.NewScreenshotUseCase(renderer, logger)

	r := NewRouter(Handlers{
		User: handler.NewUserHandler(userUC, logger),
		Post: handler.NewPostHandler(postUC, m, logger),
		News: []NewsEdition{
			{Prefix: "/news", Handler: handler.NewNewsHandler(newsES, 10<<20, logger)},
			{Prefix: "/news-en", Handler: handler.NewNewsHandler(newsEN, 10<<20, logger)},
		},
		Contact:    handler.NewContactHandler(contactUC, 10<<20, m, logger),
		Screenshot: handler.NewScreenshotHandler(screenshotUC, m, logger),
		Health:     handler.NewHealthHandler(nil, logger),
	}, Options{
		Verifier:    tokens,
		Metrics:     m,
		RateLimiter: limiter,
		Logger:      logger,
	})

	return &testEnv{router: r, mailer: mailer, renderer: renderer, images: images, metrics: m}
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	token       string
}

func (e *testEnv) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(req.method, req.path, req.body)
	if req.contentType != "" {
		r.Header.Set("Content-Type", req.contentType)
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	return rec
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (e *testEnv) register(t *testing.T, username string) (id, token string) {
	t.Helper()
	creds := map[string]string{"username": username, "password": "pw-" + username}

	rec := e.do(t, request{method: http.MethodPost, path: "/signup", body: jsonBody(t, creds), contentType: "application/json"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id = decode(t, rec)["id"].(string)

	rec = e.do(t, request{method: http.MethodPost, path: "/login", body: jsonBody(t, creds), contentType: "application/json"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token = decode(t, rec)["token"].(string)
	return id, token
}

type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...filePart) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUserRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	creds := map[string]string{"username": "alice", "password": "secret"}

	rec := env.do(t, request{method: http.MethodPost, path: "/signup", body: jsonBody(t, creds)})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "User created successfully", body["message"])
	assert.NotEmpty(t, body["id"])

	rec = env.do(t, request{method: http.MethodPost, path: "/signup", body: jsonBody(t, creds)})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User already exists\n", rec.Body.String())

	rec = env.do(t, request{method: http.MethodPost, path: "/signup", body: jsonBody(t, map[string]string{"username": "bob"})})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, request{method: http.MethodPost, path: "/signup", body: strings.NewReader("{")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	long := map[string]string{"username": "carol", "password": strings.Repeat("p", 73)}
	rec = env.do(t, request{method: http.MethodPost, path: "/signup", body: jsonBody(t, long)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password must be at most 72 bytes\n", rec.Body.String())

	rec = env.do(t, request{method: http.MethodPost, path: "/login", body: jsonBody(t, creds)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["token"])

	rec = env.do(t, request{method: http.MethodPost, path: "/login", body: jsonBody(t, map[string]string{"username": "alice", "password": "wrong"})})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, request{method: http.MethodPost, path: "/login", body: jsonBody(t, map[string]string{"username": "nobody", "password": "x"})})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	aliceID, alice := env.register(t, "alice")
	_, bob := env.register(t, "bob")
	newPost := map[string]string{"title": "Hello", "content": "World"}

	rec := env.do(t, request{method: http.MethodPost, path: "/posts", body: jsonBody(t, newPost)})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No token provided\n", rec.Body.String())

	rec = env.do(t, request{method: http.MethodPost, path: "/posts", body: jsonBody(t, newPost), token: "not-a-token"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid or expired token\n", rec.Body.String())

	rec = env.do(t, request{method: http.MethodPost, path: "/posts", body: jsonBody(t, map[string]string{"title": "x"}), token: alice})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, request{method: http.MethodPost, path: "/posts", body: jsonBody(t, newPost), token: alice})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	postID := created["id"].(string)
	assert.Equal(t, aliceID, created["user"].(map[string]any)["id"])
	assert.Equal(t, 0.0, created["likes"])

	rec = env.do(t, request{method: http.MethodGet, path: "/posts"})
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0]["user"].(map[string]any)["username"])

	t.Run("non-owner is refused whatever the payload", func(t *testing.T) {
		for _, payload := range []string{`{}`, `{"title":""}`, `not json`, `{"title":"Hijacked"}`} {
			rec := env.do(t, request{method: http.MethodPut, path: "/posts/" + postID, body: strings.NewReader(payload), token: bob})
			assert.Equal(t, http.StatusForbidden, rec.Code, payload)
		}
		rec := env.do(t, request{method: http.MethodDelete, path: "/posts/" + postID, token: bob})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	rec = env.do(t, request{method: http.MethodPut, path: "/posts/" + postID, body: strings.NewReader(`{}`), token: alice})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, request{method: http.MethodPut, path: "/posts/" + postID, body: jsonBody(t, map[string]string{"title": "Updated"}), token: alice})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode(t, rec)
	assert.Equal(t, "Updated", updated["title"])
	assert.Equal(t, "World", updated["content"])

	for _, path := range []string{"/like", "/like", "/dislike"} {
		rec = env.do(t, request{method: http.MethodPost, path: "/posts/" + postID + path})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	votes := decode(t, rec)
	assert.Equal(t, "Dislike added successfully", votes["message"])
	assert.Equal(t, 2.0, votes["likes"])
	assert.Equal(t, 1.0, votes["dislikes"])
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.PostVotesTotal.WithLabelValues("likes")))

	rec = env.do(t, request{method: http.MethodGet, path: "/posts/" + postID})
	require.Equal(t, http.StatusOK, rec.Code)
	single := decode(t, rec)
	assert.Equal(t, "Updated", single["title"])
	assert.Equal(t, map[string]any{"id": aliceID, "username": "alice"}, single["user"])

	rec = env.do(t, request{method: http.MethodDelete, path: "/posts/" + postID, token: alice})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Post deleted successfully", decode(t, rec)["message"])

	rec = env.do(t, request{method: http.MethodGet, path: "/posts/" + postID})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, request{method: http.MethodPost, path: "/posts/" + postID + "/like"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, request{method: http.MethodPut, path: "/posts/" + postID, body: jsonBody(t, newPost), token: alice})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewsRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.register(t, "editor")

	body, ct := multipartBody(t, map[string]string{"title": "Plain", "description": "No image"})
	rec := env.do(t, request{method: http.MethodPost, path: "/news", body: body, contentType: ct})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body, ct = multipartBody(t, map[string]string{"title": "Plain", "description": "No image"})
	rec = env.do(t, request{method: http.MethodPost, path: "/news", body: body, contentType: ct, token: token})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	plain := decode(t, rec)
	assert.Equal(t, true, plain["success"])
	plainNews := plain["news"].(map[string]any)
	assert.Nil(t, plainNews["image"])
	plainID := plainNews["id"].(string)

	imageData := []byte("\x89PNG\r\n\x1a\nimage")
	body, ct = multipartBody(t, map[string]string{"title": "Pictured", "description": "With image"},
		filePart{field: "image", filename: "photo.png", contentType: "image/png", data: imageData})
	rec = env.do(t, request{method: http.MethodPost, path: "/news", body: body, contentType: ct, token: token})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pictured := decode(t, rec)["news"].(map[string]any)
	picturedID := pictured["id"].(string)
	assert.Contains(t, pictured["image"], "http://images.local/")

	rec = env.do(t, request{method: http.MethodGet, path: "/news/image/" + picturedID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, imageData, rec.Body.Bytes())

	rec = env.do(t, request{method: http.MethodGet, path: "/news/image/" + plainID})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, request{method: http.MethodGet, path: "/news"})
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = env.do(t, request{method: http.MethodGet, path: "/news-en"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	rec = env.do(t, request{method: http.MethodGet, path: "/news-en/" + plainID})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, request{method: http.MethodPut, path: "/news/" + plainID, body: jsonBody(t, map[string]string{"title": "Renamed"}), contentType: "application/json", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Renamed", decode(t, rec)["news"].(map[string]any)["title"])

	rec = env.do(t, request{method: http.MethodGet, path: "/news/" + plainID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No image", decode(t, rec)["description"])

	rec = env.do(t, request{method: http.MethodDelete, path: "/news/" + picturedID, token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "News deleted successfully", decode(t, rec)["message"])
	assert.Equal(t, 0, env.images.Len())

	rec = env.do(t, request{method: http.MethodGet, path: "/news/" + picturedID})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, request{method: http.MethodDelete, path: "/news/" + picturedID, token: token})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func contactFields() map[string]string {
	return map[string]string{
		"nome":            "Ana",
		"email":           "ana@example.com",
		"telefone":        "+55 11 99999-0000",
		"claridadFormato": "clear",
		"flowIdea":        "landing page",
		"fechaEntrega":    "2026-12-01",
	}
}

func TestContactRoute(t *testing.T) {
	env := newTestEnv(t, nil)

	body, ct := multipartBody(t, contactFields(),
		filePart{field: "images", filename: "a.png", contentType: "image/png", data: []byte("a")})
	rec := env.do(t, request{method: http.MethodPost, path: "/send-email", body: body, contentType: ct})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "ana@example.com", env.mailer.sent[0].ReplyTo)
	assert.Equal(t, []string{"owner@example.com"}, env.mailer.sent[0].To)
	require.Len(t, env.mailer.sent[0].Attachments, 1)
	assert.Equal(t, "a.png", env.mailer.sent[0].Attachments[0].Filename)

	fields := contactFields()
	delete(fields, "telefone")
	body, ct = multipartBody(t, fields)
	rec = env.do(t, request{method: http.MethodPost, path: "/send-email", body: body, contentType: ct})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "telefone")

	var files []filePart
	for i := 0; i < 6; i++ {
		files = append(files, filePart{field: "images", filename: fmt.Sprintf("%d.png", i), contentType: "image/png", data: []byte("x")})
	}
	body, ct = multipartBody(t, contactFields(), files...)
	rec = env.do(t, request{method: http.MethodPost, path: "/send-email", body: body, contentType: ct})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, env.mailer.sent, 1)

	env.mailer.err = errors.New("smtp: 535 authentication failed")
	body, ct = multipartBody(t, contactFields())
	rec = env.do(t, request{method: http.MethodPost, path: "/send-email", body: body, contentType: ct})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "535 authentication failed")
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ContactEmailsTotal.WithLabelValues("error")))
}

func TestScreenshotRoute(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, request{method: http.MethodGet, path: "/screenshot/https://example.com/page?x=1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, rec.Body.Bytes())

	rec = env.do(t, request{method: http.MethodGet, path: "/screenshot/https%3A%2F%2Fexample.org"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"https://example.com/page?x=1", "https://example.org"}, env.renderer.urls)

	rec = env.do(t, request{method: http.MethodGet, path: "/screenshot/ftp://example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, request{method: http.MethodGet, path: "/screenshot/not-a-url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.renderer.err = errors.New("net::ERR_NAME_NOT_RESOLVED")
	rec = env.do(t, request{method: http.MethodGet, path: "/screenshot/https://missing.invalid"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_NAME_NOT_RESOLVED")
}

func TestRateLimitedRoutes(t *testing.T) {
	env := newTestEnv(t, middleware.NewRateLimiter(1, 1, zap.NewNop()))

	rec := env.do(t, request{method: http.MethodGet, path: "/screenshot/https://example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, request{method: http.MethodGet, path: "/screenshot/https://example.com"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = env.do(t, request{method: http.MethodGet, path: "/posts"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndCORS(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, request{method: http.MethodGet, path: "/health"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	req := httptest.NewRequest(http.MethodOptions, "/posts", nil)
	req.Header.Set("Origin", "http://frontend.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
