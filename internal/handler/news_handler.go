package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/juniorjunco/blog-pro/internal/domain"
	"github.com/juniorjunco/blog-pro/internal/usecase"
	"go.uber.org/zap"
)

// NewsHandler serves the CRUD routes of one news edition.
type NewsHandler struct {
	news           *usecase.NewsUseCase
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewNewsHandler(news *usecase.NewsUseCase, maxUploadBytes int64, logger *zap.Logger) *NewsHandler {
	return &NewsHandler{
		news:           news,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.Named("NewsHTTPHandler").With(zap.String("edition", news.Edition())),
	}
}

type newsResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       *string   `json:"image"`
	Date        time.Time `json:"date"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type newsEnvelope struct {
	Success bool         `json:"success"`
	News    newsResponse `json:"news"`
}

type newsMessage struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func toNewsResponse(item *domain.NewsItem) newsResponse {
	resp := newsResponse{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Date:        item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
	if item.Image != nil {
		url := item.Image.URL
		resp.Image = &url
	}
	return resp
}

// newsForm is a create or update payload. Absent fields stay nil.
type newsForm struct {
	Title       *string
	Description *string
	Image       *domain.ImageUpload
}

// parseNewsForm accepts multipart/form-data with an optional "image" file,
// urlencoded forms and JSON bodies.
func (h *NewsHandler) parseNewsForm(w http.ResponseWriter, r *http.Request) (*newsForm, error) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	form := &newsForm{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Title       *string `json:"title"`
			Description *string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, err
		}
		form.Title, form.Description = body.Title, body.Description
		return form, nil
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
	}

	if vs, ok := r.Form["title"]; ok && len(vs) > 0 {
		form.Title = &vs[0]
	}
	if vs, ok := r.Form["description"]; ok && len(vs) > 0 {
		form.Description = &vs[0]
	}

	if r.MultipartForm != nil {
		if headers := r.MultipartForm.File["image"]; len(headers) > 0 {
			upload, err := readUpload(headers[0])
			if err != nil {
				return nil, err
			}
			form.Image = &upload
		}
	}
	return form, nil
}

func readUpload(fh *multipart.FileHeader) (domain.ImageUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.ImageUpload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.ImageUpload{}, err
	}
	return domain.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *NewsHandler) rejectBody(w http.ResponseWriter, op string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	h.logger.Debug("Failed to parse request body for "+op, zap.Error(err))
	http.Error(w, "Invalid request body", http.StatusBadRequest)
}

func (h *NewsHandler) HandleCreateNews(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseNewsForm(w, r)
	if err != nil {
		h.rejectBody(w, "CreateNews", err)
		return
	}

	input := usecase.CreateNewsInput{Image: form.Image}
	if form.Title != nil {
		input.Title = *form.Title
	}
	if form.Description != nil {
		input.Description = *form.Description
	}

	item, err := h.news.CreateNews(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, "Failed to create news", err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, newsEnvelope{Success: true, News: toNewsResponse(item)})
}

func (h *NewsHandler) HandleListNews(w http.ResponseWriter, r *http.Request) {
	items, err := h.news.ListNews(r.Context())
	if err != nil {
		writeError(w, h.logger, "Failed to list news", err)
		return
	}

	resp := make([]newsResponse, len(items))
	for i, item := range items {
		resp[i] = toNewsResponse(item)
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *NewsHandler) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	item, err := h.news.GetNews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "Failed to get news", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toNewsResponse(item))
}

func (h *NewsHandler) HandleUpdateNews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form, err := h.parseNewsForm(w, r)
	if err != nil {
		h.rejectBody(w, "UpdateNews", err)
		return
	}

	item, err := h.news.UpdateNews(r.Context(), id, usecase.UpdateNewsInput{
		Title:       form.Title,
		Description: form.Description,
		Image:       form.Image,
	})
	if err != nil {
		writeError(w, h.logger, "Failed to update news", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newsEnvelope{Success: true, News: toNewsResponse(item)})
}

func (h *NewsHandler) HandleDeleteNews(w http.ResponseWriter, r *http.Request) {
	if err := h.news.DeleteNews(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, "Failed to delete news", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newsMessage{Success: true, Message: "News deleted successfully"})
}

// HandleGetImage streams the stored image of a news item.
func (h *NewsHandler) HandleGetImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rc, image, err := h.news.OpenImage(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "Failed to open news image", err)
		return
	}
	defer rc.Close()

	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if image.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(image.Size, 10))
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("Failed to stream news image", zap.String("id", id), zap.Error(err))
	}
}
