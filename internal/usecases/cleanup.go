package usecases

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"upload-finalizer/internal/domain/repositories"
	"upload-finalizer/pkg/errors"

	"go.uber.org/zap"
)

type CleanupService interface {
	// CleanupOldQuarantineFiles removes quarantined files untouched for maxAge
	// and returns how many were removed.
	CleanupOldQuarantineFiles(maxAge time.Duration) (int, error)
}

type cleanupService struct {
	repo   repositories.QuarantineRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewCleanupService(repo repositories.QuarantineRepository, logger *zap.Logger) CleanupService {
	return &cleanupService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *cleanupService) CleanupOldQuarantineFiles(maxAge time.Duration) (int, error) {
	root := s.repo.QuarantineDir()
	cutoff := s.now().Add(-maxAge)

	var dirs []string
	removed := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if path != root {
				dirs = append(dirs, path)
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return errors.ErrCannotStat(err)
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.ErrCannotRemove(err)
		}
		removed++
		s.logger.Info("removed stale quarantine file", zap.String("path", path), zap.Time("modified", info.ModTime()))
		return nil
	})
	if err != nil {
		return removed, err
	}

	// deepest first, so emptied parents go too
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		_ = os.Remove(dir) // fails on non-empty dirs
	}
	return removed, nil
}
