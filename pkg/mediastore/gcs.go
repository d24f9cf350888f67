package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSStore keeps media in a Google Cloud Storage bucket. References are
// object paths.
type GCSStore struct {
	client        *storage.Client
	bucket        string
	prefix        string
	publicBaseURL string
}

type GCSConfig struct {
	Bucket        string
	Prefix        string
	PublicBaseURL string
}

// NewGCSStore creates a client using Application Default Credentials.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	base := cfg.PublicBaseURL
	if base == "" {
		base = "https://storage.googleapis.com/" + cfg.Bucket
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, publicBaseURL: base}, nil
}

func (s *GCSStore) Save(ctx context.Context, folder, filename string, body io.Reader, contentType string) (string, error) {
	objectPath := s.prefix + objectName(folder, filename)
	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close failed: %w", err)
	}
	return objectPath, nil
}

func (s *GCSStore) Delete(ctx context.Context, ref string) error {
	if ref == "" || isAbsoluteURL(ref) {
		return nil
	}
	err := s.client.Bucket(s.bucket).Object(ref).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete failed for %s: %w", ref, err)
	}
	return nil
}

func (s *GCSStore) URL(ref string) string {
	return joinURL(s.publicBaseURL, ref)
}

// Close closes the GCS client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
