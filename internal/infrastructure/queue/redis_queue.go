package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"upload-finalizer/internal/domain/entities"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrEmpty is returned by Dequeue when no task arrived within the poll timeout.
var ErrEmpty = errors.New("queue: no task available")

// RedisQueue is a reliable list queue: a dequeued task stays in the processing
// list until it is acknowledged, retried or dead-lettered.
type RedisQueue struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisQueue(rdb *redis.Client, logger *zap.Logger) *RedisQueue {
	return &RedisQueue{rdb: rdb, logger: logger}
}

// promoteScript moves up to ARGV[2] delayed tasks due by ARGV[1] onto the pending list.
var promoteScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
for _, payload in ipairs(due) do
	redis.call('ZREM', KEYS[1], payload)
	redis.call('LPUSH', KEYS[2], payload)
end
return #due
`)

const promoteBatch = 100

func (q *RedisQueue) Enqueue(ctx context.Context, task entities.UploadTask) error {
	payload, err := SerializeTask(task)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, PendingQueue, payload).Err(); err != nil {
		return fmt.Errorf("push task %s: %w", task.ID, err)
	}
	return nil
}

// Dequeue blocks up to timeout for the oldest pending task.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Delivery, error) {
	raw, err := q.rdb.BRPopLPush(ctx, PendingQueue, ProcessingQueue, timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("pop task: %w", err)
	}

	task, err := DeserializeTask(raw)
	if err != nil {
		// poison payload, park it so it is not redelivered forever
		if mvErr := q.move(ctx, raw, DeadQueue); mvErr != nil {
			q.logger.Error("parking undecodable task failed",
				zap.String("payload", raw),
				zap.Error(mvErr))
		}
		return nil, err
	}
	return &Delivery{Task: *task, Raw: raw}, nil
}

func (q *RedisQueue) Ack(ctx context.Context, d *Delivery) error {
	if err := q.rdb.LRem(ctx, ProcessingQueue, 1, d.Raw).Err(); err != nil {
		return fmt.Errorf("ack task %s: %w", d.Task.ID, err)
	}
	return nil
}

// Retry takes the task off the processing list with its attempt counter bumped.
// With a positive delay it waits in the delayed set until PromoteDue releases it,
// otherwise it goes straight back on the pending list.
func (q *RedisQueue) Retry(ctx context.Context, d *Delivery, delay time.Duration) error {
	task := d.Task
	task.Attempts++
	payload, err := SerializeTask(task)
	if err != nil {
		return err
	}

	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, ProcessingQueue, 1, d.Raw)
		if delay > 0 {
			due := time.Now().Add(delay).UnixMilli()
			pipe.ZAdd(ctx, DelayedQueue, &redis.Z{Score: float64(due), Member: payload})
		} else {
			pipe.LPush(ctx, PendingQueue, payload)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("retry task %s: %w", task.ID, err)
	}
	return nil
}

// PromoteDue moves delayed tasks whose time has come onto the pending list.
func (q *RedisQueue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	n, err := promoteScript.Run(ctx, q.rdb,
		[]string{DelayedQueue, PendingQueue},
		now.UnixMilli(), promoteBatch).Int()
	if err != nil {
		return 0, fmt.Errorf("promote delayed tasks: %w", err)
	}
	return n, nil
}

func (q *RedisQueue) DeadLetter(ctx context.Context, d *Delivery) error {
	if err := q.move(ctx, d.Raw, DeadQueue); err != nil {
		return fmt.Errorf("dead-letter task %s: %w", d.Task.ID, err)
	}
	return nil
}

// Recover returns tasks left in the processing list by a crashed worker to the
// pending list. It must run before any worker of the same queue starts.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	n := 0
	for {
		err := q.rdb.RPopLPush(ctx, ProcessingQueue, PendingQueue).Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("recover tasks: %w", err)
		}
		n++
	}
}

func (q *RedisQueue) Len(ctx context.Context, list string) (int64, error) {
	return q.rdb.LLen(ctx, list).Result()
}

func (q *RedisQueue) DelayedLen(ctx context.Context) (int64, error) {
	return q.rdb.ZCard(ctx, DelayedQueue).Result()
}

func (q *RedisQueue) move(ctx context.Context, raw, to string) error {
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, ProcessingQueue, 1, raw)
		pipe.LPush(ctx, to, raw)
		return nil
	})
	return err
}
