package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type WorkerPool struct {
	JobChan chan *Delivery
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
}

// NewWorkerPool starts workerCount workers. JobChan is unbuffered, so a send
// only succeeds when a worker is idle.
func NewWorkerPool(workerCount int, handler Handler, complete Completion, logger *zap.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	pool := &WorkerPool{
		JobChan: make(chan *Delivery),
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < workerCount; i++ {
		worker := &Worker{
			ID:       i,
			JobChan:  pool.JobChan,
			Wg:       &pool.wg,
			Handler:  handler,
			Complete: complete,
			Logger:   logger,
		}
		pool.wg.Add(1)
		worker.Start(pool.ctx)
	}
	return pool
}

// AddJob blocks until a worker takes d or ctx is done.
func (p *WorkerPool) AddJob(ctx context.Context, d *Delivery) bool {
	select {
	case p.JobChan <- d:
		return true
	case <-ctx.Done():
		return false
	case <-p.ctx.Done():
		return false
	}
}

// Shutdown lets in-flight tasks finish and stops the workers.
func (p *WorkerPool) Shutdown() {
	p.once.Do(func() {
		close(p.JobChan)
		p.wg.Wait()
		p.cancel()
	})
}
