package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/royalty/backend/internal/infrastructure/config"
)

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	_, err := NewS3ObjectStorage(nil)
	assert.ErrorContains(t, err, "configuration is required")

	_, err = NewS3ObjectStorage(&config.StorageConfig{AccessKey: "k", SecretKey: "s"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewS3ObjectStorage(&config.StorageConfig{Bucket: "b", AccessKey: "k"})
	assert.ErrorContains(t, err, "secret key")
}

func TestNormalizeEndpoint(t *testing.T) {
	ep, err := normalizeEndpoint("minio:9000", false)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", ep)

	ep, err = normalizeEndpoint("s3.local", true)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.local", ep)

	ep, err = normalizeEndpoint("", true)
	require.NoError(t, err)
	assert.Empty(t, ep)
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(&config.StorageConfig{
		Bucket:       "royalty-exports",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     "http://localhost:9000",
		UsePathStyle: true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, "royalty-exports", s.Bucket())

	_, _, err = s.GenerateDownloadURL(context.Background(), "", time.Minute)
	assert.Error(t, err)

	url, expiresAt, err := s.GenerateDownloadURL(context.Background(), "payouts/payouts-2025-03.csv", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/royalty-exports/payouts/payouts-2025-03.csv"))
	assert.Contains(t, url, "X-Amz-Signature")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
}

func TestS3ObjectStorage_UploadRequiresKey(t *testing.T) {
	s, err := NewS3ObjectStorage(&config.StorageConfig{Bucket: "b", AccessKey: "k", SecretKey: "s", Endpoint: "localhost:9000"})
	require.NoError(t, err)
	assert.Error(t, s.Upload(context.Background(), "", []byte("x"), "text/csv"))
}

func TestMemoryObjectStorage(t *testing.T) {
	s := NewMemoryObjectStorage()
	ctx := context.Background()

	_, _, err := s.GenerateDownloadURL(ctx, "missing.csv", time.Minute)
	assert.Error(t, err)

	data := []byte("a,b\n")
	require.NoError(t, s.Upload(ctx, "payouts/x.csv", data, "text/csv"))
	data[0] = 'z'

	obj, ok := s.Get("payouts/x.csv")
	require.True(t, ok)
	assert.Equal(t, "a,b\n", string(obj.Data))
	assert.Equal(t, "text/csv", obj.ContentType)

	url, _, err := s.GenerateDownloadURL(ctx, "payouts/x.csv", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "memory://exports/payouts/x.csv?expires="))

	assert.Error(t, s.Upload(ctx, "", nil, ""))
}
