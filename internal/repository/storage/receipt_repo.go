package storage

import (
	"context"
	"io"
	"time"
)

// ReceiptRepository defines the interface for receipt object storage
type ReceiptRepository interface {
	// Upload stores an object and returns its object path. Presigned URLs
	// are generated on demand; the bucket stays private.
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	PresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}
