package storage

import (
	"context"
	"strings"
	"testing"

	"alcyxob/gym-app/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/img",
		publicBaseURL(config.S3Config{PublicBaseURL: "https://cdn.example.com/img/", BucketName: "gym"}))
	assert.Equal(t, "http://localhost:9000/gym",
		publicBaseURL(config.S3Config{Endpoint: "http://localhost:9000/", BucketName: "gym"}))
	assert.Equal(t, "https://s3.eu-west-1.amazonaws.com/gym",
		publicBaseURL(config.S3Config{Region: "eu-west-1", BucketName: "gym"}))
}

func TestDisabledStorage(t *testing.T) {
	s := NewDisabledStorage()
	_, err := s.PutObject(context.Background(), "coach/a.png", "image/png", strings.NewReader("x"), 1)
	require.ErrorIs(t, err, ErrStorageDisabled)
	_, err = s.GeneratePresignedUploadURL(context.Background(), "a", "image/png", 0)
	require.ErrorIs(t, err, ErrStorageDisabled)
}
