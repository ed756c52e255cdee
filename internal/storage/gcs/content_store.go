package gcs

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/ports"
)

// ContentStore stores render artifacts in a Google Cloud Storage bucket and
// serves them through short-lived V4 signed URLs.
type ContentStore struct {
	client *storage.Client
	bucket string
}

// NewContentStore creates a store over the given bucket using ambient
// application default credentials.
func NewContentStore(ctx context.Context, bucket string) (*ContentStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &ContentStore{client: client, bucket: bucket}, nil
}

var _ ports.ContentStore = (*ContentStore)(nil)

// Put writes data to key. The object is durable once Put returns nil; a
// failed writer Close means the object does not exist.
func (s *ContentStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("%w: failed to write object %s: %v", apperrors.ErrStorage, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: failed to finalize object %s: %v", apperrors.ErrStorage, key, err)
	}
	return nil
}

// SignedGetURL returns a V4 signed GET URL for key, valid for ttl.
func (s *ContentStore) SignedGetURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to sign URL for %s: %v", apperrors.ErrStorage, key, err)
	}
	return url, nil
}

// Close releases the underlying client.
func (s *ContentStore) Close() error {
	return s.client.Close()
}
