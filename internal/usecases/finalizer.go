package usecases

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"upload-finalizer/internal/domain/entities"
	"upload-finalizer/internal/domain/repositories"
	fe "upload-finalizer/pkg/errors"
	"upload-finalizer/pkg/file"

	"go.uber.org/zap"
)

// Scanner reports an infected file with *errors.InfectedFileError. By then the
// file no longer needs to be relocated.
type Scanner interface {
	Scan(ctx context.Context, path string) error
}

// Finalizer scans a quarantined upload and moves it into durable storage,
// publishing progress to the status store. Every step is safe to repeat, since
// the runner may deliver a task more than once.
type Finalizer struct {
	status  repositories.StatusStore
	scanner Scanner
	storage repositories.StorageStrategy
	logger  *zap.Logger
}

func NewFinalizer(status repositories.StatusStore, scanner Scanner, storage repositories.StorageStrategy, logger *zap.Logger) *Finalizer {
	return &Finalizer{
		status:  status,
		scanner: scanner,
		storage: storage,
		logger:  logger,
	}
}

// Handle adapts Finalize to the task runner. The task checksum lets a redelivered
// task recognise its own file at the destination.
func (f *Finalizer) Handle(ctx context.Context, task entities.UploadTask) error {
	return f.finalize(ctx, task.RequestID, task.QuarantinePath, task.IsUpdate, task.Checksum)
}

func (f *Finalizer) Finalize(ctx context.Context, requestID, quarantinePath string, isUpdate bool) error {
	return f.finalize(ctx, requestID, quarantinePath, isUpdate, "")
}

func (f *Finalizer) finalize(ctx context.Context, requestID, quarantinePath string, isUpdate bool, checksum string) error {
	filename := filepath.Base(quarantinePath)
	key := file.MakeKey(requestID, filename, isUpdate)
	log := f.logger.With(
		zap.String("request_id", requestID),
		zap.String("filename", filename),
		zap.String("key", key),
	)

	done, err := f.alreadyRelocated(ctx, requestID, quarantinePath, filename, isUpdate, checksum)
	if err != nil {
		return err
	}
	if done {
		log.Info("file already relocated by an earlier delivery")
		return f.setStatus(ctx, key, entities.UploadStatusReady)
	}

	if err := f.setStatus(ctx, key, entities.UploadStatusScanning); err != nil {
		return err
	}

	if err := f.scanner.Scan(ctx, quarantinePath); err != nil {
		if !fe.IsInfected(err) {
			return err
		}
		log.Warn("infected upload discarded", zap.Error(err))
		if rmErr := os.Remove(quarantinePath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Error("removing infected file", zap.Error(rmErr))
		}
		if err := f.status.Delete(ctx, key); err != nil {
			return fe.ErrStatusStore(err)
		}
		return nil
	}

	dst, err := f.storage.Relocate(ctx, quarantinePath, requestID, filename, isUpdate)
	if err != nil {
		return err
	}

	if err := f.setStatus(ctx, key, entities.UploadStatusReady); err != nil {
		return err
	}
	log.Info("upload finalized", zap.String("path", dst))
	return nil
}

// alreadyRelocated detects a redelivery after a crash between the move and the
// READY write: the quarantine file is gone and the destination holds a file with
// the checksum taken at submission. Anything else goes through the scan again, so
// a file the scanner deleted never turns READY.
func (f *Finalizer) alreadyRelocated(ctx context.Context, requestID, quarantinePath, filename string, isUpdate bool, checksum string) (bool, error) {
	if checksum == "" {
		return false, nil
	}
	if _, err := os.Stat(quarantinePath); err == nil || !os.IsNotExist(err) {
		return false, nil
	}
	stored, ok, err := f.storage.Checksum(ctx, requestID, filename, isUpdate)
	if err != nil {
		return false, err
	}
	return ok && strings.EqualFold(stored, checksum), nil
}

func (f *Finalizer) setStatus(ctx context.Context, key string, status entities.UploadStatus) error {
	if err := f.status.Set(ctx, key, status); err != nil {
		return fe.ErrStatusStore(err)
	}
	return nil
}
