package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	fe "upload-finalizer/pkg/errors"

	execute "github.com/alexellis/go-execute/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	exitCode   int
	deleteFile bool
	err        error
	block      bool

	calls   int
	command string
	args    []string
}

func (f *fakeRunner) Run(ctx context.Context, command string, args []string) (execute.ExecResult, error) {
	f.calls++
	f.command = command
	f.args = args
	if f.block {
		<-ctx.Done()
		return execute.ExecResult{Cancelled: true}, ctx.Err()
	}
	if f.err != nil {
		return execute.ExecResult{}, f.err
	}
	if f.deleteFile {
		_ = os.Remove(args[len(args)-1])
	}
	return execute.ExecResult{ExitCode: f.exitCode, Stdout: "scan report"}, nil
}

func writeFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func enabled() Config {
	return Config{Enabled: true, Binary: "uvscan", InfectedExitCode: 13}
}

func TestScanDisabledIsNoop(t *testing.T) {
	runner := &fakeRunner{deleteFile: true}
	s := NewWithRunner(Config{Enabled: false}, runner, zap.NewNop())

	path := writeFile(t)
	require.NoError(t, s.Scan(context.Background(), path))
	assert.Equal(t, 0, runner.calls)
	assert.FileExists(t, path)
}

func TestScanInvocation(t *testing.T) {
	runner := &fakeRunner{}
	s := NewWithRunner(enabled(), runner, zap.NewNop())

	path := writeFile(t)
	require.NoError(t, s.Scan(context.Background(), path))
	assert.Equal(t, "uvscan", runner.command)
	assert.Equal(t, []string{"--analyze", "--atime-preserve", "--delete", path}, runner.args)
}

func TestInspectOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		exitCode   int
		deleteFile bool
		want       Outcome
		wantFile   bool
	}{
		{name: "clean", exitCode: 0, want: Clean, wantFile: true},
		{name: "non-zero exit keeps file", exitCode: 2, want: Clean, wantFile: true},
		{name: "infected and deleted", exitCode: 13, deleteFile: true, want: Infected},
		{name: "infected but left behind", exitCode: 13, want: Infected},
		{name: "vanished without report", exitCode: 0, deleteFile: true, want: Indeterminate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{exitCode: tt.exitCode, deleteFile: tt.deleteFile}
			s := NewWithRunner(enabled(), runner, zap.NewNop())
			path := writeFile(t)

			res, err := s.Inspect(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Outcome)
			assert.Equal(t, tt.exitCode, res.ExitCode)
			if tt.wantFile {
				assert.FileExists(t, path)
			} else {
				assert.NoFileExists(t, path)
			}
		})
	}
}

func TestScanReportsInfectedFile(t *testing.T) {
	for _, deleteOnly := range []int{13, 0} {
		runner := &fakeRunner{exitCode: deleteOnly, deleteFile: true}
		s := NewWithRunner(enabled(), runner, zap.NewNop())

		err := s.Scan(context.Background(), writeFile(t))
		var infected *fe.InfectedFileError
		require.ErrorAs(t, err, &infected)
		assert.Equal(t, "report.pdf", infected.Filename)
	}
}

func TestScanTimeout(t *testing.T) {
	cfg := enabled()
	cfg.Timeout = 20 * time.Millisecond
	s := NewWithRunner(cfg, &fakeRunner{block: true}, zap.NewNop())

	err := s.Scan(context.Background(), writeFile(t))
	var timeout *fe.ScanTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.False(t, fe.IsInfected(err))
}

func TestScanRunnerFailure(t *testing.T) {
	s := NewWithRunner(enabled(), &fakeRunner{err: errors.New("exec: \"uvscan\": executable file not found")}, zap.NewNop())

	err := s.Scan(context.Background(), writeFile(t))
	require.Error(t, err)
	assert.False(t, fe.IsInfected(err))
	assert.Contains(t, err.Error(), "uvscan")
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "clean", Clean.String())
	assert.Equal(t, "infected", Infected.String())
	assert.Equal(t, "indeterminate", Indeterminate.String())
}
