// Package receipts archives scanned receipt photos in Google Cloud Storage.
package receipts

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/dompet/internal/extraction"
	"github.com/dvloznov/dompet/internal/scan"
	"github.com/google/uuid"
)

// uploadTimeout bounds a single photo upload.
const uploadTimeout = 2 * time.Minute

// Archive stores receipt photos in one bucket. It implements scan.ReceiptArchive.
type Archive struct {
	client *storage.Client
	bucket string
	now    func() time.Time
	newID  func() string
}

// NewArchive creates a storage client for bucket.
// It assumes Application Default Credentials are configured.
func NewArchive(ctx context.Context, bucket string) (*Archive, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewArchive: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewArchive: create storage client: %w", err)
	}
	return &Archive{
		client: client,
		bucket: bucket,
		now:    time.Now,
		newID:  uuid.NewString,
	}, nil
}

// Close closes the storage client.
func (a *Archive) Close() error {
	return a.client.Close()
}

// Store uploads img and returns its gs:// URI.
func (a *Archive) Store(ctx context.Context, userID string, img extraction.Image) (string, error) {
	objectName := ObjectName(userID, a.now(), a.newID(), img.MIMEType)

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = img.MIMEType
	w.Metadata = map[string]string{"user_id": userID}

	if _, err := w.Write(img.Data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Store: write object %s: %w", objectName, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Store: finalize upload: %w", err)
	}

	return FormatGCSURI(a.bucket, objectName), nil
}

// Fetch downloads an archived photo. Any bucket readable by the client may be named in uri.
func (a *Archive) Fetch(ctx context.Context, uri string) (extraction.Image, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return extraction.Image{}, fmt.Errorf("Fetch: %w", err)
	}

	rc, err := a.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return extraction.Image{}, fmt.Errorf("Fetch: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return extraction.Image{}, fmt.Errorf("Fetch: reading bytes: %w", err)
	}

	mimeType := rc.Attrs.ContentType
	if mimeType == "" {
		mimeType = MIMETypeFromName(object)
	}
	return extraction.Image{MIMEType: mimeType, Data: data}, nil
}

var _ scan.ReceiptArchive = (*Archive)(nil)
