package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/tieubaoca/studytool-be/config"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore holds document payloads keyed by storage name. Delete of a
// missing key is not an error; Get of a missing key returns ErrBlobNotFound.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// New builds the blob store selected by cfg.BlobStore.Driver.
func New(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.BlobStore.Driver {
	case "local":
		return NewLocalStore(cfg.UploadDir)
	case "s3":
		return NewS3Store(ctx, cfg.BlobStore.S3)
	case "gcs":
		return NewGCSStore(ctx, cfg.BlobStore.GCS)
	default:
		return nil, fmt.Errorf("unsupported blob store driver %q", cfg.BlobStore.Driver)
	}
}
