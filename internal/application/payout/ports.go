package payout

import (
	"context"
	"time"
)

// ArchiveStorage stores rendered export files and hands out time-limited download links
type ArchiveStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}
