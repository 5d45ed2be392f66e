package repositories

import (
	"context"

	"upload-finalizer/internal/domain/entities"
)

// StatusStore is the key-value service pollers read upload progress from.
// Writes are single-key and carry no cross-key guarantees.
type StatusStore interface {
	Set(ctx context.Context, key string, status entities.UploadStatus) error
	Delete(ctx context.Context, key string) error
	// Get reports false when the key is absent.
	Get(ctx context.Context, key string) (entities.UploadStatus, bool, error)
}
