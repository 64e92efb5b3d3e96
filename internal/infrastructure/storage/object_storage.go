// Package storage provides object storage implementations for file operations.
package storage

import (
	"context"
	"time"
)

// ObjectStorage abstracts an S3-compatible object store. It is used for
// rendered print documents (receipts, statements) and exported report files.
type ObjectStorage interface {
	// GenerateUploadURL returns a presigned URL for uploading an object.
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL returns a presigned URL for downloading an object.
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// Upload writes data directly to the store (for server-generated files).
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error

	// Download reads an object's contents from the store.
	Download(ctx context.Context, storageKey string) ([]byte, error)

	// DeleteObject removes an object from the store.
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists reports whether an object exists in the store.
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}
