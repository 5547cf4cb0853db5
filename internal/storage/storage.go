package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// ErrStorageDisabled is returned by the disabled backend used when no
// bucket is configured.
var ErrStorageDisabled = errors.New("file storage is not configured")

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// PutObject stores body under objectKey and returns its public URL.
	PutObject(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) (string, error)

	// GeneratePresignedUploadURL creates a temporary URL that allows PUT
	// requests for uploading an object directly to the bucket.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// PublicURL is the URL an uploaded object is served from.
	PublicURL(objectKey string) string

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

// disabledStorage keeps the server running without a bucket; every call
// fails with ErrStorageDisabled.
type disabledStorage struct{}

// NewDisabledStorage returns a FileStorage whose operations all fail.
func NewDisabledStorage() FileStorage { return disabledStorage{} }

func (disabledStorage) PutObject(context.Context, string, string, io.Reader, int64) (string, error) {
	return "", ErrStorageDisabled
}

func (disabledStorage) GeneratePresignedUploadURL(context.Context, string, string, time.Duration) (string, error) {
	return "", ErrStorageDisabled
}

func (disabledStorage) PublicURL(string) string { return "" }

func (disabledStorage) DeleteObject(context.Context, string) error { return ErrStorageDisabled }
