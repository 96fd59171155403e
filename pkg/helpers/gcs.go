package helpers

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// GCSUploader writes objects into a single bucket and returns their public URL.
type GCSUploader struct {
	Client *storage.Client
	Bucket string
}

func NewGCSUploader(client *storage.Client, bucket string) *GCSUploader {
	return &GCSUploader{Client: client, Bucket: bucket}
}

// Upload streams r into bucket/objectPath with the provided contentType
func (u *GCSUploader) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	wc := u.Client.Bucket(u.Bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "private, max-age=3600"
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return PublicURL(u.Bucket, objectPath), nil
}

// PublicURL builds a public URL for an object (assuming public read access or signed URLs)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}
