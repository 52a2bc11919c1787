package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/jobpilot/backend/config"
)

// CVArchive keeps the original CV files of signed-in users in Cloud Storage
type CVArchive struct {
	client     *storage.Client
	bucketName string
	urlTTL     time.Duration
}

// NewCVArchive creates the archive for cfg.CVBucketName
func NewCVArchive(ctx context.Context, cfg *config.Config) (*CVArchive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud Storage client: %w", err)
	}

	return &CVArchive{
		client:     client,
		bucketName: cfg.CVBucketName,
		urlTTL:     15 * time.Minute,
	}, nil
}

// Close closes the Cloud Storage client
func (c *CVArchive) Close() error {
	return c.client.Close()
}

// Archive stores content under the owner's folder and returns a short-lived
// signed URL to it.
func (c *CVArchive) Archive(ctx context.Context, owner, filename string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	objectName := ObjectName(owner, ext, time.Now())

	wc := c.client.Bucket(c.bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = ContentType(ext)
	wc.Metadata = map[string]string{"originalName": filename}

	if _, err := wc.Write(content); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to write content: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	return c.SignedURL(objectName)
}

// SignedURL generates a signed URL for temporary access
func (c *CVArchive) SignedURL(objectName string) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(c.urlTTL),
	}

	url, err := c.client.Bucket(c.bucketName).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return url, nil
}

// ObjectName builds the object path of an archived CV
func ObjectName(owner, ext string, at time.Time) string {
	sanitized := strings.ReplaceAll(owner, "@", "_at_")
	sanitized = strings.ReplaceAll(sanitized, ".", "_")
	return fmt.Sprintf("cvs/%s/%d%s", sanitized, at.Unix(), ext)
}

// ContentType maps a CV file extension to its MIME type
func ContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
