package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.EqualValues(t, 512000, cfg.Upload.MaxChunkSize)
	assert.Equal(t, "uvscan", cfg.Scan.Binary)
	assert.Equal(t, 10*time.Minute, cfg.Scan.Timeout)
	assert.Equal(t, 13, cfg.Scan.InfectedExitCode)
	assert.Equal(t, 4, cfg.Queue.WorkerCount)
	assert.Equal(t, 5, cfg.Queue.MaxAttempts)
	assert.Equal(t, BackendLocal, cfg.Storage.Backend)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("UPLOAD_DIRECTORY", "/srv/uploads")
	t.Setenv("VIRUS_SCAN_ENABLED", "true")
	t.Setenv("VIRUS_SCAN_TIMEOUT", "30s")
	t.Setenv("WORKER_COUNT", "not-a-number")
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("S3_BUCKET", "records")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "/srv/uploads", cfg.Upload.UploadDir)
	assert.True(t, cfg.Scan.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Scan.Timeout)
	assert.Equal(t, 4, cfg.Queue.WorkerCount)
	assert.Equal(t, BackendS3, cfg.Storage.Backend)
}

func TestLoadConfigEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MAX_CHUNKSIZE=1024\nTASK_RETRY_DELAY=5s\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("MAX_CHUNKSIZE")
		os.Unsetenv("TASK_RETRY_DELAY")
	})

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.EqualValues(t, 1024, cfg.Upload.MaxChunkSize)
	assert.Equal(t, 5*time.Second, cfg.Queue.RetryDelay)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"s3 without bucket": {"STORAGE_BACKEND": "s3"},
		"unknown backend":   {"STORAGE_BACKEND": "ftp"},
		"zero chunk size":   {"MAX_CHUNKSIZE": "0"},
		"zero workers":      {"WORKER_COUNT": "0"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{Upload: UploadConfig{
		UploadDir:     filepath.Join(root, "uploads"),
		QuarantineDir: filepath.Join(root, "quarantine", "nested"),
	}}

	require.NoError(t, cfg.EnsureDirs())
	require.NoError(t, cfg.EnsureDirs())

	assert.DirExists(t, cfg.Upload.UploadDir)
	assert.DirExists(t, cfg.Upload.QuarantineDir)
}
