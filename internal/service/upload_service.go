package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUploadUnavailable   = errors.New("file uploads are not configured")
	ErrFileTooLarge        = errors.New("file is too large")
	ErrUnsupportedFileType = errors.New("only JPEG, PNG and WebP images are accepted")
)

// PresignedUpload tells the client where to PUT the file and which URL
// to store afterwards.
type PresignedUpload struct {
	UploadURL   string    `json:"uploadUrl"`
	PublicURL   string    `json:"publicUrl"`
	Key         string    `json:"key"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type UploadService interface {
	Upload(ctx context.Context, principal domain.Principal, kind domain.UploadKind, contentType string, size int64, body io.Reader) (string, error)
	Presign(ctx context.Context, principal domain.Principal, kind domain.UploadKind, contentType string) (*PresignedUpload, error)
	MaxBytes() int64
}

type uploadService struct {
	files    storage.FileStorage
	maxBytes int64
	logger   *zap.Logger
}

func NewUploadService(files storage.FileStorage, maxBytes int64, logger *zap.Logger) UploadService {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &uploadService{files: files, maxBytes: maxBytes, logger: logger}
}

func (s *uploadService) MaxBytes() int64 { return s.maxBytes }

// Upload stores an image under the kind's prefix with a random name and
// returns its public URL.
func (s *uploadService) Upload(ctx context.Context, principal domain.Principal, kind domain.UploadKind, contentType string, size int64, body io.Reader) (string, error) {
	key, err := s.objectKey(principal, kind, contentType)
	if err != nil {
		return "", err
	}
	if size <= 0 {
		return "", validationErrorf("file is empty")
	}
	if size > s.maxBytes {
		return "", ErrFileTooLarge
	}

	url, err := s.files.PutObject(ctx, key, contentType, body, size)
	if err != nil {
		if errors.Is(err, storage.ErrStorageDisabled) {
			return "", ErrUploadUnavailable
		}
		return "", fmt.Errorf("upload %s: %w", kind, err)
	}
	s.logger.Info("Image uploaded", zap.String("key", key), zap.Int64("size", size), zap.String("user_id", principal.UserID().Hex()))
	return url, nil
}

func (s *uploadService) Presign(ctx context.Context, principal domain.Principal, kind domain.UploadKind, contentType string) (*PresignedUpload, error) {
	key, err := s.objectKey(principal, kind, contentType)
	if err != nil {
		return nil, err
	}
	url, err := s.files.GeneratePresignedUploadURL(ctx, key, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		if errors.Is(err, storage.ErrStorageDisabled) {
			return nil, ErrUploadUnavailable
		}
		return nil, fmt.Errorf("presign %s: %w", kind, err)
	}
	return &PresignedUpload{
		UploadURL:   url,
		PublicURL:   s.files.PublicURL(key),
		Key:         key,
		ContentType: contentType,
		ExpiresAt:   time.Now().UTC().Add(storage.DefaultPresignedURLExpiry),
	}, nil
}

// objectKey checks the caller may upload kind and builds the key.
// Catalog images are admin-only; any signed-in user may upload an ID image.
func (s *uploadService) objectKey(principal domain.Principal, kind domain.UploadKind, contentType string) (string, error) {
	if kind != domain.UploadApplicantID {
		if _, ok := principal.(domain.AdminPrincipal); !ok {
			return "", ErrForbidden
		}
	}
	ext, ok := domain.AllowedImageTypes[contentType]
	if !ok {
		return "", ErrUnsupportedFileType
	}
	return kind.Prefix() + uuid.NewString() + ext, nil
}
