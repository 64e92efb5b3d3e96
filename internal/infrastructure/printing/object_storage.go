package printing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/casaops/backend/internal/infrastructure/storage"
)

// ObjectPDFStorageConfig contains configuration for object-storage-backed PDF storage
type ObjectPDFStorageConfig struct {
	// KeyPrefix is prepended to every storage key. Default: "prints"
	KeyPrefix string
	// PresignExpiration is how long generated download URLs stay valid
	PresignExpiration time.Duration
	// Logger for operations
	Logger *zap.Logger
}

// ObjectPDFStorage stores rendered PDFs in S3-compatible object storage.
// Retention is left to bucket lifecycle rules, so CleanupOlderThan is a no-op.
type ObjectPDFStorage struct {
	store  storage.ObjectStorage
	config ObjectPDFStorageConfig
	logger *zap.Logger
}

// NewObjectPDFStorage creates PDF storage backed by the given object store
func NewObjectPDFStorage(store storage.ObjectStorage, config ObjectPDFStorageConfig) *ObjectPDFStorage {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "prints"
	}
	if config.PresignExpiration == 0 {
		config.PresignExpiration = 15 * time.Minute
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObjectPDFStorage{
		store:  store,
		config: config,
		logger: logger,
	}
}

// Store uploads a PDF under {prefix}/{org_id}/{year}/{month}/{job_id}.pdf
func (s *ObjectPDFStorage) Store(ctx context.Context, req *StoreRequest) (*StoreResult, error) {
	if req == nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "store request is nil", nil)
	}

	now := time.Now()
	key := fmt.Sprintf("%s/%s/%04d/%02d/%s.pdf",
		s.config.KeyPrefix, req.OrgID, now.Year(), now.Month(), req.JobID)

	if err := s.store.Upload(ctx, key, req.PDFData, "application/pdf"); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to upload PDF", err)
	}

	url, _, err := s.store.GenerateDownloadURL(ctx, key, s.config.PresignExpiration)
	if err != nil {
		// The object is stored; a fresh URL can be generated on download.
		s.logger.Warn("Failed to presign PDF download URL",
			zap.String("key", key),
			zap.Error(err),
		)
		url = key
	}

	return &StoreResult{
		Path: key,
		URL:  url,
		Size: int64(len(req.PDFData)),
	}, nil
}

// Get downloads a stored PDF
func (s *ObjectPDFStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	data, err := s.store.Download(ctx, path)
	if err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to download PDF", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes a stored PDF
func (s *ObjectPDFStorage) Delete(ctx context.Context, path string) error {
	if err := s.store.DeleteObject(ctx, path); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "failed to delete PDF", err)
	}
	return nil
}

// CleanupOlderThan is handled by bucket lifecycle rules for object storage
func (s *ObjectPDFStorage) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	return 0, nil
}

// GetURL returns a presigned download URL for the stored PDF. Falls back to
// the raw key if presigning fails; callers stream through the API anyway.
func (s *ObjectPDFStorage) GetURL(path string) string {
	url, _, err := s.store.GenerateDownloadURL(context.Background(), path, s.config.PresignExpiration)
	if err != nil {
		return path
	}
	return url
}

var _ PDFStorage = (*ObjectPDFStorage)(nil)
