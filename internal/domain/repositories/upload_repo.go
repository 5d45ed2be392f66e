package repositories

import (
	"context"
	"io"

	"upload-finalizer/internal/domain/entities"
)

// QuarantineRepository stores uploads until they are handed to the finalizer.
type QuarantineRepository interface {
	// WriteFile replaces the quarantine file with the whole of r and returns its size.
	WriteFile(requestID, filename string, isUpdate bool, r io.Reader) (int64, error)
	// WriteChunk writes r at start into a file of total bytes and records the
	// range, so completion does not depend on the order chunks arrive in.
	WriteChunk(requestID, filename string, isUpdate bool, start, total int64, r io.Reader) (entities.ChunkProgress, error)
	Path(requestID, filename string, isUpdate bool) string
	Remove(requestID, filename string, isUpdate bool) error
	QuarantineDir() string
}

// FailedTaskRepository keeps tasks that exhausted their retries.
type FailedTaskRepository interface {
	Save(ctx context.Context, task *entities.FailedTask) error
	ListByRequest(ctx context.Context, requestID string) ([]entities.FailedTask, error)
	Delete(ctx context.Context, id uint) error
}
