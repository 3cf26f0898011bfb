package handler

import (
	"errors"
	"net/http"

	"github.com/juniorjunco/blog-pro/internal/domain"
	"github.com/juniorjunco/blog-pro/internal/platform/metrics"
	"github.com/juniorjunco/blog-pro/internal/usecase"
	"go.uber.org/zap"
)

type ContactHandler struct {
	contact        *usecase.ContactUseCase
	maxUploadBytes int64
	metrics        *metrics.MetricsManager
	logger         *zap.Logger
}

// NewContactHandler builds the contact form handler. m may be nil.
func NewContactHandler(contact *usecase.ContactUseCase, maxUploadBytes int64, m *metrics.MetricsManager, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contact:        contact,
		maxUploadBytes: maxUploadBytes,
		metrics:        m,
		logger:         logger.Named("ContactHTTPHandler"),
	}
}

// HandleSendEmail reads the contact form (multipart, up to the configured
// number of "images" files) and forwards it by email.
func (h *ContactHandler) HandleSendEmail(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Debug("Failed to parse contact form", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req := domain.ContactRequest{
		Name:          r.FormValue("nome"),
		Email:         r.FormValue("email"),
		Phone:         r.FormValue("telefone"),
		FormatClarity: r.FormValue("claridadFormato"),
		FlowIdea:      r.FormValue("flowIdea"),
		DeliveryDate:  r.FormValue("fechaEntrega"),
	}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			upload, err := readUpload(fh)
			if err != nil {
				h.logger.Debug("Failed to read contact attachment", zap.String("filename", fh.Filename), zap.Error(err))
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			req.Attachments = append(req.Attachments, domain.Attachment{
				Filename:    upload.Filename,
				ContentType: upload.ContentType,
				Data:        upload.Data,
			})
		}
	}

	err := h.contact.Submit(r.Context(), req)
	if h.metrics != nil && !errors.Is(err, domain.ErrValidation) {
		h.metrics.ContactEmailsTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	}
	if err != nil {
		writeError(w, h.logger, "Failed to send contact email", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, messageResponse{Message: "Email sent successfully"})
}
