package queue

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"upload-finalizer/internal/domain/entities"

	"go.uber.org/zap"
)

// Handler executes one task. A returned error marks the delivery failed.
type Handler func(ctx context.Context, task entities.UploadTask) error

// Completion is told how each delivery ended.
type Completion func(ctx context.Context, d *Delivery, err error)

type Worker struct {
	ID       int              // worker id
	JobChan  <-chan *Delivery // task queue
	Wg       *sync.WaitGroup
	Handler  Handler
	Complete Completion
	Logger   *zap.Logger
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer w.Wg.Done()
		for {
			select {
			case d, ok := <-w.JobChan:
				if !ok {
					w.Logger.Debug("job channel closed", zap.Int("worker_id", w.ID))
					return
				}
				w.processJob(ctx, d)
			case <-ctx.Done():
				w.Logger.Debug("stopping due to context cancellation", zap.Int("worker_id", w.ID))
				return
			}
		}
	}()
}

func (w *Worker) processJob(ctx context.Context, d *Delivery) {
	log := w.Logger.With(
		zap.Int("worker_id", w.ID),
		zap.String("task_id", d.Task.ID),
		zap.String("request_id", d.Task.RequestID),
		zap.Int("attempt", d.Task.Attempts+1),
	)
	log.Info("processing task")

	err := w.run(ctx, d.Task)
	if err != nil {
		log.Warn("task failed", zap.Error(err))
	} else {
		log.Info("task succeeded")
	}

	if w.Complete != nil {
		w.Complete(ctx, d, err)
	}
}

// run keeps a panicking task from taking the worker down.
func (w *Worker) run(ctx context.Context, task entities.UploadTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
			w.Logger.Error("panic in task handler",
				zap.String("task_id", task.ID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	return w.Handler(ctx, task)
}
