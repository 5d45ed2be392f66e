package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"upload-finalizer/internal/domain/entities"
	consts "upload-finalizer/pkg/constants"
)

// QuarantineRepository keeps uploads under <tempDir>/<request_id>/<new|update>/<filename>
// until the finalizer takes them. The base name of every quarantine path is the
// original filename. Ranged uploads keep their received byte ranges in a hidden
// .<filename>.ranges file next to the data.
type QuarantineRepository struct {
	tempDir   string
	fileMutex sync.Mutex
}

// receivedRanges is the on-disk record of a ranged upload. Ranges are half-open,
// sorted and merged.
type receivedRanges struct {
	Total  int64      `json:"total"`
	Ranges [][2]int64 `json:"ranges"`
}

func NewQuarantineRepository(tempDir string) *QuarantineRepository {
	return &QuarantineRepository{tempDir: tempDir}
}

func (r *QuarantineRepository) QuarantineDir() string {
	return r.tempDir
}

func (r *QuarantineRepository) Path(requestID, filename string, isUpdate bool) string {
	kind := consts.KeySuffixNew
	if isUpdate {
		kind = consts.KeySuffixUpdate
	}
	return filepath.Join(r.tempDir, requestID, kind, filename)
}

func (r *QuarantineRepository) rangesPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".ranges")
}

func (r *QuarantineRepository) WriteFile(requestID, filename string, isUpdate bool, src io.Reader) (int64, error) {
	r.fileMutex.Lock()
	defer r.fileMutex.Unlock()

	path := r.Path(requestID, filename, isUpdate)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create quarantine dir: %w", err)
	}
	if err := os.Remove(r.rangesPath(path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("remove range record: %w", err)
	}
	return writeAt(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0, src, -1)
}

func (r *QuarantineRepository) WriteChunk(requestID, filename string, isUpdate bool, start, total int64, src io.Reader) (entities.ChunkProgress, error) {
	r.fileMutex.Lock()
	defer r.fileMutex.Unlock()

	if start > total || (start == total && total > 0) {
		return entities.ChunkProgress{}, fmt.Errorf("chunk starts at %d beyond %d bytes", start, total)
	}

	path := r.Path(requestID, filename, isUpdate)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return entities.ChunkProgress{}, fmt.Errorf("create quarantine dir: %w", err)
	}

	rec, fresh := r.loadRanges(path, total)
	flags := os.O_WRONLY | os.O_CREATE
	if fresh {
		// a new upload, or a different total, replaces any leftover from an abandoned attempt
		flags |= os.O_TRUNC
	}
	wasComplete := !fresh && rec.covered() == total

	n, err := writeAt(path, flags, start, src, total-start)
	if err != nil {
		return entities.ChunkProgress{}, err
	}
	size := start + n
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	rec.add(start, start+n)
	if err := r.saveRanges(path, rec); err != nil {
		return entities.ChunkProgress{}, err
	}

	received := rec.covered()
	complete := received == total
	return entities.ChunkProgress{
		Size:      size,
		Received:  received,
		Complete:  complete,
		Completed: complete && !wasComplete,
	}, nil
}

// loadRanges returns the record for path. fresh is true when there is nothing
// to continue: no data file, no record, or a record for another total.
func (r *QuarantineRepository) loadRanges(path string, total int64) (*receivedRanges, bool) {
	empty := &receivedRanges{Total: total}
	if _, err := os.Stat(path); err != nil {
		return empty, true
	}
	data, err := os.ReadFile(r.rangesPath(path))
	if err != nil {
		return empty, true
	}
	var rec receivedRanges
	if err := json.Unmarshal(data, &rec); err != nil || rec.Total != total {
		return empty, true
	}
	return &rec, false
}

func (r *QuarantineRepository) saveRanges(path string, rec *receivedRanges) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode range record: %w", err)
	}
	dst := r.rangesPath(path)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write range record: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("save range record: %w", err)
	}
	return nil
}

func (rec *receivedRanges) add(from, to int64) {
	if to > rec.Total {
		to = rec.Total
	}
	if from >= to {
		return
	}
	ranges := append(rec.Ranges, [2]int64{from, to})
	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })

	merged := ranges[:1]
	for _, rg := range ranges[1:] {
		last := &merged[len(merged)-1]
		if rg[0] <= last[1] {
			if rg[1] > last[1] {
				last[1] = rg[1]
			}
			continue
		}
		merged = append(merged, rg)
	}
	rec.Ranges = merged
}

func (rec *receivedRanges) covered() int64 {
	var n int64
	for _, rg := range rec.Ranges {
		n += rg[1] - rg[0]
	}
	return n
}

// writeAt copies src into path at offset. A non-negative limit caps the bytes
// accepted; more than that is an error.
func writeAt(path string, flags int, offset int64, src io.Reader, limit int64) (int64, error) {
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open quarantine file: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek to %d: %w", offset, err)
	}
	if limit >= 0 {
		src = io.LimitReader(src, limit+1)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		return 0, fmt.Errorf("write chunk: %w", err)
	}
	if limit >= 0 && n > limit {
		if err := f.Truncate(offset + limit); err != nil {
			return 0, fmt.Errorf("truncate overlong chunk: %w", err)
		}
		return 0, fmt.Errorf("chunk at %d runs past the declared length", offset)
	}
	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("sync chunk: %w", err)
	}
	return n, nil
}

func (r *QuarantineRepository) Remove(requestID, filename string, isUpdate bool) error {
	path := r.Path(requestID, filename, isUpdate)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(r.rangesPath(path)); err != nil && !os.IsNotExist(err) {
		return err
	}
	r.removeEmptyDirs(filepath.Dir(path))
	return nil
}

// removeEmptyDirs deletes dir and its parents up to the quarantine root while they are empty.
func (r *QuarantineRepository) removeEmptyDirs(dir string) {
	root := filepath.Clean(r.tempDir)
	for dir = filepath.Clean(dir); dir != root && len(dir) > len(root); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}
