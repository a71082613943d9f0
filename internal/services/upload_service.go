package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/finchsocial/finch/internal/models"
	"github.com/finchsocial/finch/internal/policy"
)

// UploadService validates and stores media files. Audio uploads are double
// gated: a redeemed verification code and the upload window.
type UploadService struct {
	storage StorageService
	otps    *OTPService
	window  policy.Window
	logger  *slog.Logger
}

// NewUploadService creates a new UploadService
func NewUploadService(storage StorageService, otps *OTPService, window policy.Window, logger *slog.Logger) *UploadService {
	return &UploadService{
		storage: storage,
		otps:    otps,
		window:  window,
		logger:  logger,
	}
}

// UploadImage stores an image and returns its URL.
func (s *UploadService) UploadImage(ctx context.Context, userID, filename, contentType string, body io.Reader, size int64) (string, error) {
	if size <= 0 || size > models.MaxImageSizeBytes {
		return "", models.ErrBadRequest
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", models.ErrBadRequest
	}

	url, err := s.storage.Upload(ctx, "images", filename, contentType, body, size)
	if err != nil {
		return "", models.ErrInternalServer
	}

	s.logger.Info("image uploaded",
		slog.String("user_id", userID),
		slog.Int64("size", size))

	return url, nil
}

// UploadAudio stores an audio file. It requires a redeemable verification
// code id and only works inside the upload window; the code is consumed.
func (s *UploadService) UploadAudio(ctx context.Context, userID, otpID, filename, contentType string, body io.Reader, size int64) (string, error) {
	if !s.window.IsOpen(time.Now()) {
		return "", models.ErrUploadWindowClosed
	}

	if size <= 0 || size > models.MaxAudioSizeBytes {
		return "", models.ErrBadRequest
	}
	if !strings.HasPrefix(contentType, "audio/") {
		return "", models.ErrBadRequest
	}

	if err := s.otps.RedeemAudioUploadOTP(ctx, userID, otpID); err != nil {
		return "", err
	}

	url, err := s.storage.Upload(ctx, "audio", filename, contentType, body, size)
	if err != nil {
		return "", models.ErrInternalServer
	}

	s.logger.Info("audio uploaded",
		slog.String("user_id", userID),
		slog.Int64("size", size))

	return url, nil
}
