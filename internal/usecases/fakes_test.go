package usecases

import (
	"context"
	"errors"
	"os"
	"sync"

	"upload-finalizer/internal/domain/entities"

	execute "github.com/alexellis/go-execute/v2"
)

type fakeStatusStore struct {
	mu      sync.Mutex
	values  map[string]entities.UploadStatus
	history map[string][]entities.UploadStatus
	setErr  error
}

func newFakeStatusStore() *fakeStatusStore {
	return &fakeStatusStore{
		values:  map[string]entities.UploadStatus{},
		history: map[string][]entities.UploadStatus{},
	}
}

func (s *fakeStatusStore) Set(_ context.Context, key string, status entities.UploadStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = status
	s.history[key] = append(s.history[key], status)
	return nil
}

func (s *fakeStatusStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	s.history[key] = append(s.history[key], "")
	return nil
}

func (s *fakeStatusStore) Get(_ context.Context, key string) (entities.UploadStatus, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *fakeStatusStore) lookup(key string) (entities.UploadStatus, bool) {
	v, ok, _ := s.Get(context.Background(), key)
	return v, ok
}

// scannerBinary simulates the external scanner: infected files are deleted and
// reported with exit code 13.
type scannerBinary struct {
	infected bool
}

func (b scannerBinary) Run(_ context.Context, _ string, args []string) (execute.ExecResult, error) {
	if b.infected {
		if err := os.Remove(args[len(args)-1]); err != nil {
			return execute.ExecResult{}, err
		}
		return execute.ExecResult{ExitCode: 13}, nil
	}
	return execute.ExecResult{ExitCode: 0}, nil
}

type fakeSubmitter struct {
	mu    sync.Mutex
	tasks []entities.UploadTask
	err   error
}

func (f *fakeSubmitter) Submit(_ context.Context, task entities.UploadTask) (entities.UploadTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return task, f.err
	}
	task.ID = "task-1"
	f.tasks = append(f.tasks, task)
	return task, nil
}

var errStoreDown = errors.New("redis: connection refused")
