package export

import (
	"context"

	"emperror.dev/errors"
)

// Provider identifies an external storage backend.
type Provider string

// Uploader ships snapshot archives to external storage.
type Uploader interface {
	Provider() Provider
	// Upload compresses dir and stores it as <name>.tar.gz in bucket.
	Upload(ctx context.Context, dir, bucket, name string, opts ...UploadOption) error
	// Delete removes a previously uploaded archive.
	Delete(ctx context.Context, bucket, name string) error
}

// FromProvider returns the uploader for a backend.
func FromProvider(p Provider) (Uploader, error) {
	switch p {
	case GCS:
		return NewGcsUploader()
	default:
		return nil, errors.Errorf("unsupported provider: %s", p)
	}
}
