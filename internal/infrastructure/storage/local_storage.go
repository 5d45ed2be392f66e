package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"upload-finalizer/internal/pkg/fileutils"
	consts "upload-finalizer/pkg/constants"
	fe "upload-finalizer/pkg/errors"
	"upload-finalizer/pkg/file"
)

// LocalStorage lays files out as <BasePath>/<request_id>[/updated]/<filename>.
type LocalStorage struct {
	BasePath string
}

func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{BasePath: basePath}
}

// Dir returns the destination directory of a request.
func (l *LocalStorage) Dir(requestID string, isUpdate bool) string {
	dir := filepath.Join(l.BasePath, requestID)
	if isUpdate {
		dir = filepath.Join(dir, consts.UpdatedFileDirname)
	}
	return dir
}

func (l *LocalStorage) Path(requestID, filename string, isUpdate bool) string {
	return filepath.Join(l.Dir(requestID, isUpdate), filename)
}

func (l *LocalStorage) Relocate(_ context.Context, src, requestID, filename string, isUpdate bool) (string, error) {
	dir := l.Dir(requestID, isUpdate)
	if err := ensureDir(dir); err != nil {
		return "", fe.ErrDirectoryCreation(err)
	}

	dst := filepath.Join(dir, filename)
	if err := moveFile(src, dst); err != nil {
		return "", fe.ErrMove(err)
	}
	return dst, nil
}

func (l *LocalStorage) Checksum(_ context.Context, requestID, filename string, isUpdate bool) (string, bool, error) {
	path := l.Path(requestID, filename, isUpdate)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !info.Mode().IsRegular() {
		return "", false, nil
	}
	sum, err := file.CalculateFileHash(path)
	if err != nil {
		return "", false, err
	}
	return sum, true, nil
}

// ensureDir treats a directory created concurrently by another task as success.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	return nil
}

// moveFile renames src over dst, copying when the two live on different filesystems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !fileutils.IsCrossDevice(err) {
		return err
	}
	if err := fileutils.CopyFile(src, dst); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := os.Remove(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s after copy: %w", src, err)
	}
	return nil
}
