package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// ErrObjectExists is returned when the upload precondition finds an object already at the path.
var ErrObjectExists = errors.New("object already exists")

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// NewStorageClient creates a GCS client shared by all functions.
func NewStorageClient(ctx context.Context) (*storage.Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// BucketStore writes uploaded files into a single GCS bucket.
type BucketStore struct {
	bucket *storage.BucketHandle
	name   string
}

// NewBucketStore returns a BucketStore bound to bucketName.
func NewBucketStore(client *storage.Client, bucketName string) *BucketStore {
	return &BucketStore{
		bucket: client.Bucket(bucketName),
		name:   bucketName,
	}
}

// Upload writes content to objectName only if it doesn't already exist.
// Partially written objects are not cleaned up on failure.
func (s *BucketStore) Upload(ctx context.Context, objectName string, content []byte, contentType string) error {
	writer := s.bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		slog.Error("Failed to copy content to GCS object.", "bucket", s.name, "object", objectName, "error", err)
		return fmt.Errorf("failed to write to GCS: %w", preconditionErr(err))
	}

	if err := writer.Close(); err != nil {
		slog.Error("Failed to close GCS writer.", "bucket", s.name, "object", objectName, "error", err)
		return fmt.Errorf("failed to finalize GCS write: %w", preconditionErr(err))
	}
	return nil
}

// preconditionErr maps a failed DoesNotExist precondition onto ErrObjectExists.
func preconditionErr(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		return fmt.Errorf("%w: %v", ErrObjectExists, err)
	}
	return err
}
