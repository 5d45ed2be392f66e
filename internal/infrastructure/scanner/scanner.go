package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	fe "upload-finalizer/pkg/errors"

	execute "github.com/alexellis/go-execute/v2"
	"go.uber.org/zap"
)

type Outcome int

const (
	Clean Outcome = iota
	Infected
	// Indeterminate means the file disappeared without the scanner reporting an infection.
	Indeterminate
)

func (o Outcome) String() string {
	switch o {
	case Clean:
		return "clean"
	case Infected:
		return "infected"
	case Indeterminate:
		return "indeterminate"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result keeps the scanner output for diagnostics. Only Outcome is authoritative.
type Result struct {
	Outcome  Outcome
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// CommandRunner runs the scanner binary. The default runner uses go-execute.
type CommandRunner interface {
	Run(ctx context.Context, command string, args []string) (execute.ExecResult, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, command string, args []string) (execute.ExecResult, error) {
	task := execute.ExecTask{
		Command:     command,
		Args:        args,
		StreamStdio: false,
	}
	return task.Execute(ctx)
}

// Options are the scanner flags: heuristic analysis, keep atime, delete infected files.
var Options = []string{"--analyze", "--atime-preserve", "--delete"}

type Config struct {
	Enabled          bool
	Binary           string
	Timeout          time.Duration
	InfectedExitCode int
}

type Scanner struct {
	cfg    Config
	runner CommandRunner
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Scanner {
	return NewWithRunner(cfg, execRunner{}, logger)
}

func NewWithRunner(cfg Config, runner CommandRunner, logger *zap.Logger) *Scanner {
	return &Scanner{cfg: cfg, runner: runner, logger: logger}
}

// Inspect scans path and classifies the result. Scanning disabled is always Clean.
func (s *Scanner) Inspect(ctx context.Context, path string) (Result, error) {
	if !s.cfg.Enabled {
		return Result{Outcome: Clean}, nil
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, Options...), path)
	started := time.Now()
	res, err := s.runner.Run(ctx, s.cfg.Binary, args)
	elapsed := time.Since(started)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Result{Duration: elapsed}, &fe.ScanTimeoutError{Timeout: s.cfg.Timeout}
	}
	if err != nil {
		return Result{Duration: elapsed}, fmt.Errorf("run %s: %w", s.cfg.Binary, err)
	}

	result := Result{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Duration: elapsed,
	}

	present, err := fileExists(path)
	if err != nil {
		return result, fmt.Errorf("stat %s after scan: %w", path, err)
	}

	reported := res.ExitCode == s.cfg.InfectedExitCode
	switch {
	case present && !reported:
		result.Outcome = Clean
		if res.ExitCode != 0 {
			s.logger.Warn("scanner exited non-zero but left the file in place",
				zap.String("path", path),
				zap.Int("exit_code", res.ExitCode),
				zap.String("stderr", res.Stderr))
		}
	case present && reported:
		// The scanner flagged the file but failed to delete it.
		result.Outcome = Infected
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return result, fmt.Errorf("remove infected file %s: %w", path, err)
		}
		s.logger.Warn("scanner reported infection without deleting; file removed", zap.String("path", path))
	case !present && reported:
		result.Outcome = Infected
	default:
		result.Outcome = Indeterminate
		s.logger.Warn("file disappeared during scan without an infection report",
			zap.String("path", path),
			zap.Int("exit_code", res.ExitCode),
			zap.String("stdout", res.Stdout),
			zap.String("stderr", res.Stderr))
	}

	s.logger.Debug("scan finished",
		zap.String("path", path),
		zap.Stringer("outcome", result.Outcome),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", elapsed))

	return result, nil
}

// Scan returns *errors.InfectedFileError when the file is infected or vanished during the scan.
func (s *Scanner) Scan(ctx context.Context, path string) error {
	res, err := s.Inspect(ctx, path)
	if err != nil {
		return err
	}
	if res.Outcome != Clean {
		return &fe.InfectedFileError{Filename: filepath.Base(path)}
	}
	return nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
