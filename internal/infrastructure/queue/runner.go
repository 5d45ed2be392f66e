package queue

import (
	"context"
	"errors"
	"time"

	"upload-finalizer/internal/domain/entities"
	"upload-finalizer/internal/domain/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RunnerOptions struct {
	WorkerCount int
	MaxAttempts int
	RetryDelay  time.Duration
	PollTimeout time.Duration
	// FailedTasks records dead-lettered tasks. Optional.
	FailedTasks repositories.FailedTaskRepository
}

// Runner is the background task runner: callers Submit and return immediately,
// Run executes tasks on a worker pool with at-least-once delivery.
type Runner struct {
	queue  *RedisQueue
	opts   RunnerOptions
	logger *zap.Logger
}

func NewRunner(q *RedisQueue, opts RunnerOptions, logger *zap.Logger) *Runner {
	if opts.WorkerCount < 1 {
		opts.WorkerCount = 1
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = time.Second
	}
	return &Runner{queue: q, opts: opts, logger: logger}
}

// Submit persists the task on the queue. It does not wait for the task to run.
func (r *Runner) Submit(ctx context.Context, task entities.UploadTask) (entities.UploadTask, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}
	if err := r.queue.Enqueue(ctx, task); err != nil {
		return task, err
	}
	r.logger.Debug("task submitted",
		zap.String("task_id", task.ID),
		zap.String("request_id", task.RequestID),
		zap.String("path", task.QuarantinePath))
	return task, nil
}

// Run blocks until ctx is canceled. In-flight tasks finish before it returns;
// tasks still sitting in the processing list are picked up by the next Run.
// Only one Run may consume a queue at a time: on start it requeues everything in
// the processing list, including tasks another Run is still working on.
func (r *Runner) Run(ctx context.Context, handler Handler) error {
	recovered, err := r.queue.Recover(ctx)
	if err != nil {
		return err
	}
	if recovered > 0 {
		r.logger.Info("requeued unfinished tasks", zap.Int("count", recovered))
	}

	pool := NewWorkerPool(r.opts.WorkerCount, handler, r.complete, r.logger)
	defer pool.Shutdown()

	r.logger.Info("task runner started", zap.Int("workers", r.opts.WorkerCount))
	for ctx.Err() == nil {
		if n, err := r.queue.PromoteDue(ctx, time.Now()); err != nil {
			if ctx.Err() != nil {
				break
			}
			r.logger.Error("promoting delayed tasks failed", zap.Error(err))
		} else if n > 0 {
			r.logger.Debug("delayed tasks due", zap.Int("count", n))
		}

		d, err := r.queue.Dequeue(ctx, r.opts.PollTimeout)
		if errors.Is(err, ErrEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			r.logger.Error("dequeue failed", zap.Error(err))
			sleep(ctx, time.Second)
			continue
		}
		if !pool.AddJob(ctx, d) {
			break
		}
	}
	r.logger.Info("task runner stopping")
	return nil
}

func (r *Runner) complete(ctx context.Context, d *Delivery, taskErr error) {
	log := r.logger.With(zap.String("task_id", d.Task.ID), zap.String("request_id", d.Task.RequestID))

	if taskErr == nil {
		if err := r.queue.Ack(ctx, d); err != nil {
			log.Error("ack failed", zap.Error(err))
		}
		return
	}

	attempts := d.Task.Attempts + 1
	if attempts < r.opts.MaxAttempts {
		log.Warn("task failed, retrying",
			zap.Int("attempt", attempts),
			zap.Duration("delay", r.opts.RetryDelay),
			zap.Error(taskErr))
		if err := r.queue.Retry(ctx, d, r.opts.RetryDelay); err != nil {
			log.Error("retry failed", zap.Error(err))
		}
		return
	}

	log.Error("task exhausted its attempts", zap.Int("attempts", attempts), zap.Error(taskErr))
	if err := r.queue.DeadLetter(ctx, d); err != nil {
		log.Error("dead-letter failed", zap.Error(err))
	}
	if r.opts.FailedTasks == nil {
		return
	}
	failed := &entities.FailedTask{
		TaskID:         d.Task.ID,
		RequestID:      d.Task.RequestID,
		QuarantinePath: d.Task.QuarantinePath,
		IsUpdate:       d.Task.IsUpdate,
		Attempts:       attempts,
		LastError:      taskErr.Error(),
		Payload:        []byte(d.Raw),
	}
	if err := r.opts.FailedTasks.Save(ctx, failed); err != nil {
		log.Error("recording failed task", zap.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
