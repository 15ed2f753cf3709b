// Package storage uploads profile photos to Google Cloud Storage.
package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/samber/oops"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string, opts ...option.ClientOption) (*storage.Client, error) {
	if credsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credsPath))
	}
	return storage.NewClient(ctx, opts...)
}

// GCSPhotoStorage writes objects into a single bucket.
type GCSPhotoStorage struct {
	client *storage.Client
	bucket string
}

func NewGCSPhotoStorage(client *storage.Client, bucket string) *GCSPhotoStorage {
	return &GCSPhotoStorage{client: client, bucket: bucket}
}

// Upload copies r into bucket/objectPath and returns the public URL.
func (s *GCSPhotoStorage) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	wc := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // single request upload, photos are small
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", oops.Code("PHOTO_UPLOAD_FAILED").With("object", objectPath).Wrap(err)
	}
	if err := wc.Close(); err != nil {
		return "", oops.Code("PHOTO_UPLOAD_FAILED").With("object", objectPath).Wrap(err)
	}
	return PublicURL(s.bucket, objectPath), nil
}

// PublicURL builds a public URL for an object (assuming public read access or signed URLs)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}
