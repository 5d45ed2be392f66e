package main //worker

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"upload-finalizer/internal/domain/repositories"
	"upload-finalizer/internal/infrastructure/db"
	"upload-finalizer/internal/infrastructure/queue"
	infra_repo "upload-finalizer/internal/infrastructure/repositories"
	"upload-finalizer/internal/infrastructure/scanner"
	"upload-finalizer/internal/infrastructure/statusstore"
	"upload-finalizer/internal/infrastructure/storage"
	"upload-finalizer/internal/pkg/config"
	applog "upload-finalizer/internal/pkg/logger"
	"upload-finalizer/internal/usecases"
	"upload-finalizer/migrations"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := applog.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.EnsureDirs(); err != nil {
		zl.Fatal("creating directories", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	store, err := newStorage(ctx, cfg)
	if err != nil {
		zl.Fatal("storage backend", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}

	opts := queue.RunnerOptions{
		WorkerCount: cfg.Queue.WorkerCount,
		MaxAttempts: cfg.Queue.MaxAttempts,
		RetryDelay:  cfg.Queue.RetryDelay,
	}
	if cfg.Database.DSN != "" {
		database, err := db.NewPostgresDB(cfg.Database.DSN)
		if err != nil {
			zl.Fatal("DB connection failed", zap.Error(err))
		}
		if cfg.Database.RunAutoMigration {
			if err := db.Migrate(ctx, database, migrations.DialectPostgres); err != nil {
				zl.Fatal("migrations", zap.Error(err))
			}
		}
		opts.FailedTasks = infra_repo.NewFailedTaskRepository(database)
	} else {
		zl.Warn("DATABASE_DSN not set, dead-lettered tasks stay in redis only")
	}

	sc := scanner.New(scanner.Config{
		Enabled:          cfg.Scan.Enabled,
		Binary:           cfg.Scan.Binary,
		Timeout:          cfg.Scan.Timeout,
		InfectedExitCode: cfg.Scan.InfectedExitCode,
	}, zl)
	finalizer := usecases.NewFinalizer(statusstore.NewRedisStatusStore(rdb, cfg.Upload.StatusTTL), sc, store, zl)

	runner := queue.NewRunner(queue.NewRedisQueue(rdb, zl), opts, zl)
	if err := runner.Run(ctx, finalizer.Handle); err != nil {
		zl.Fatal("task runner", zap.Error(err))
	}
	zl.Info("worker stopped")
}

func newStorage(ctx context.Context, cfg *config.Config) (repositories.StorageStrategy, error) {
	if cfg.Storage.Backend == config.BackendS3 {
		return storage.NewS3Storage(ctx, storage.S3Options{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
		})
	}
	return storage.NewLocalStorage(cfg.Upload.UploadDir), nil
}
