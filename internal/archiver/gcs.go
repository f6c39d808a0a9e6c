package archiver

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// GCSUploader copies snapshots into a Google Cloud Storage bucket, replacing
// the cloud-sync folder the legacy deployment dropped its backup zip into.
// Credentials come from the ambient service account
// (GOOGLE_APPLICATION_CREDENTIALS or the metadata server).
type GCSUploader struct {
	bucket string
	prefix string
}

func NewGCSUploader(bucket, prefix string) *GCSUploader {
	return &GCSUploader{bucket: bucket, prefix: prefix}
}

func (u *GCSUploader) Upload(ctx context.Context, name string, data []byte) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}
	defer client.Close()

	object := name
	if u.prefix != "" {
		object = u.prefix + "/" + name
	}

	w := client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/zip"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object %s: %w", object, err)
	}
	return nil
}
