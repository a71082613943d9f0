package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/finchsocial/finch/internal/auth"
	"github.com/finchsocial/finch/internal/models"
	pkghttp "github.com/finchsocial/finch/pkg/http"
)

// UploadServiceInterface defines the interface for media uploads
type UploadServiceInterface interface {
	UploadImage(ctx context.Context, userID, filename, contentType string, body io.Reader, size int64) (string, error)
	UploadAudio(ctx context.Context, userID, otpID, filename, contentType string, body io.Reader, size int64) (string, error)
}

// UploadHandler handles media upload HTTP requests
type UploadHandler struct {
	service UploadServiceInterface
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(service UploadServiceInterface) *UploadHandler {
	return &UploadHandler{service: service}
}

// Image accepts a multipart image file up to 5 MB
func (h *UploadHandler) Image(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(models.MaxImageSizeBytes); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Missing file")
		return
	}
	defer file.Close()

	url, err := h.service.UploadImage(r.Context(), claims.UserID,
		header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// Audio accepts a multipart audio file up to 100 MB. The otp_id form field
// must reference a verified upload code; it is consumed on success.
func (h *UploadHandler) Audio(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(models.MaxAudioSizeBytes); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid multipart form")
		return
	}

	otpID := r.FormValue("otp_id")
	if otpID == "" {
		pkghttp.WriteBadRequest(w, "Missing otp_id")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Missing file")
		return
	}
	defer file.Close()

	url, err := h.service.UploadAudio(r.Context(), claims.UserID, otpID,
		header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]string{"url": url})
}
