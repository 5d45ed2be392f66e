package queue

import (
	"context"
	"testing"
	"time"

	"upload-finalizer/internal/domain/entities"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	return newQueueWithLogger(t, zap.NewNop())
}

func newQueueWithLogger(t *testing.T, logger *zap.Logger) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisQueue(rdb, logger), mr
}

func task(id string) entities.UploadTask {
	return entities.UploadTask{
		ID:             id,
		RequestID:      "FOIL-2017-001",
		QuarantinePath: "/quarantine/FOIL-2017-001/new/" + id + ".pdf",
	}
}

func length(t *testing.T, q *RedisQueue, list string) int64 {
	t.Helper()
	n, err := q.Len(context.Background(), list)
	require.NoError(t, err)
	return n
}

func TestSerializeRoundTrip(t *testing.T) {
	in := task("t1")
	in.IsUpdate = true
	in.Attempts = 2

	raw, err := SerializeTask(in)
	require.NoError(t, err)
	out, err := DeserializeTask(raw)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.QuarantinePath, out.QuarantinePath)
	assert.True(t, out.IsUpdate)
	assert.Equal(t, 2, out.Attempts)

	_, err = DeserializeTask("{not json")
	assert.Error(t, err)
}

func TestRedisQueueFIFOAndAck(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, task("t1")))
	require.NoError(t, q.Enqueue(ctx, task("t2")))

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "t1", d.Task.ID)
	assert.Equal(t, int64(1), length(t, q, ProcessingQueue))

	require.NoError(t, q.Ack(ctx, d))
	assert.Equal(t, int64(0), length(t, q, ProcessingQueue))
	assert.Equal(t, int64(1), length(t, q, PendingQueue))
}

func TestRedisQueueDequeueEmpty(t *testing.T) {
	q, _ := newQueue(t)

	_, err := q.Dequeue(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestRedisQueueRetryBumpsAttempts(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, task("t1")))

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NoError(t, q.Retry(ctx, d, 0))
	assert.Equal(t, int64(0), length(t, q, ProcessingQueue))

	d, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "t1", d.Task.ID)
	assert.Equal(t, 1, d.Task.Attempts)
}

func TestRedisQueueDeadLetter(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, task("t1")))

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NoError(t, q.DeadLetter(ctx, d))

	assert.Equal(t, int64(0), length(t, q, ProcessingQueue))
	assert.Equal(t, int64(1), length(t, q, DeadQueue))
}

func TestRedisQueuePoisonPayload(t *testing.T) {
	q, mr := newQueue(t)
	_, err := mr.Lpush(PendingQueue, "garbage")
	require.NoError(t, err)

	_, err = q.Dequeue(context.Background(), time.Second)
	require.Error(t, err)
	assert.Equal(t, int64(0), length(t, q, ProcessingQueue))
	assert.Equal(t, int64(1), length(t, q, DeadQueue))
}

func TestRedisQueueDelayedRetry(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, task("t1")))

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NoError(t, q.Retry(ctx, d, time.Minute))

	assert.Equal(t, int64(0), length(t, q, ProcessingQueue))
	assert.Equal(t, int64(0), length(t, q, PendingQueue))
	delayed, err := q.DelayedLen(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), delayed)

	n, err := q.PromoteDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "not due yet")

	n, err = q.PromoteDue(ctx, time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	delayed, err = q.DelayedLen(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), delayed)

	d, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "t1", d.Task.ID)
	assert.Equal(t, 1, d.Task.Attempts)
}

func TestRedisQueuePoisonPayloadParkFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	q, mr := newQueueWithLogger(t, zap.New(core))
	_, err := mr.Lpush(PendingQueue, "garbage")
	require.NoError(t, err)
	// the dead list key holds a string, so pushing onto it fails
	require.NoError(t, mr.Set(DeadQueue, "not a list"))

	_, err = q.Dequeue(context.Background(), time.Second)
	require.Error(t, err)

	entries := logs.FilterMessage("parking undecodable task failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "garbage", entries[0].ContextMap()["payload"])
}

func TestRedisQueueRecover(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, task("t1")))
	require.NoError(t, q.Enqueue(ctx, task("t2")))

	// a worker took both and crashed
	_, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	_, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	n, err := q.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(0), length(t, q, ProcessingQueue))

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "t1", d.Task.ID)
}
