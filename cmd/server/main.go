package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "upload-finalizer/docs"

	"upload-finalizer/internal/delivery/http/routers"
	"upload-finalizer/internal/infrastructure/queue"
	infra_repo "upload-finalizer/internal/infrastructure/repositories"
	"upload-finalizer/internal/infrastructure/statusstore"
	"upload-finalizer/internal/pkg/config"
	applog "upload-finalizer/internal/pkg/logger"
	"upload-finalizer/internal/usecases"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// @title        Upload Finalizer API
// @version      1.0
// @description  Receives quarantined uploads and reports their finalization status.
// @BasePath     /api/v1
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

	if err := cfg.EnsureDirs(); err != nil {
		zl.Fatal("creating directories", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		zl.Warn("redis not reachable yet", zap.String("addr", cfg.RedisAddr()), zap.Error(err))
	}
	cancelPing()

	// Repositories & Services
	quarantineRepo := infra_repo.NewQuarantineRepository(cfg.Upload.QuarantineDir)
	statusStore := statusstore.NewRedisStatusStore(rdb, cfg.Upload.StatusTTL)
	runner := queue.NewRunner(queue.NewRedisQueue(rdb, zl), queue.RunnerOptions{
		WorkerCount: cfg.Queue.WorkerCount,
		MaxAttempts: cfg.Queue.MaxAttempts,
		RetryDelay:  cfg.Queue.RetryDelay,
	}, zl)
	uploadService := usecases.NewUploadService(quarantineRepo, statusStore, runner, cfg.Upload.MaxChunkSize, zl)
	cleanupService := usecases.NewCleanupService(quarantineRepo, zl)

	sweeper := cron.New(cron.WithSeconds())
	if _, err := sweeper.AddFunc(cfg.Upload.QuarantineSchedule, func() {
		removed, err := cleanupService.CleanupOldQuarantineFiles(cfg.Upload.QuarantineMaxAge)
		if err != nil {
			zl.Error("quarantine sweep failed", zap.Error(err))
			return
		}
		if removed > 0 {
			zl.Info("quarantine sweep", zap.Int("removed", removed))
		}
	}); err != nil {
		zl.Fatal("invalid QUARANTINE_SWEEP_SCHEDULE", zap.String("schedule", cfg.Upload.QuarantineSchedule), zap.Error(err))
	}
	sweeper.Start()

	app := fiber.New(fiber.Config{
		// multipart overhead on top of one chunk
		BodyLimit: int(cfg.Upload.MaxChunkSize) + 1<<20,
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Routes
	routers.SetupHealthRoutes(app)
	routers.SetupSwaggerRoutes(app)
	routers.SetupUploadRoutes(app, uploadService, zl)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	zl.Info("server starting", zap.String("addr", addr))

	// Graceful shutdown
	go func() {
		if err := app.Listen(addr); err != nil {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutdown signal received")

	<-sweeper.Stop().Done()

	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctxShut); err != nil {
		zl.Error("server shutdown", zap.Error(err))
		return
	}
	zl.Info("server stopped")
}
