package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_EnqueueLeaseAck(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(time.Minute)

	require.NoError(t, q.Enqueue(ctx, "j1", "id1", []byte("payload")))

	leased, err := q.Lease(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, leased)
	assert.Equal(t, "j1", leased.Job)
	assert.Equal(t, []byte("payload"), leased.Payload)
	assert.NotEmpty(t, leased.Receipt)

	require.NoError(t, q.Ack(ctx, leased.Receipt))

	depth, err := q.Depth(ctx, "j1")
	require.NoError(t, err)
	assert.Zero(t, depth)
}

func TestMemory_LeaseEmptyReturnsNil(t *testing.T) {
	q := NewMemory(time.Minute)
	leased, err := q.Lease(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, leased)
}

func TestMemory_DuplicateIdentityDropped(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(time.Minute)

	require.NoError(t, q.Enqueue(ctx, "j1", "same", []byte("a")))
	require.NoError(t, q.Enqueue(ctx, "j1", "same", []byte("b")))

	depth, err := q.Depth(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)
}

func TestMemory_IdentityFreedAfterAck(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(time.Minute)

	require.NoError(t, q.Enqueue(ctx, "j1", "same", []byte("a")))
	leased, err := q.Lease(ctx, time.Second)
	require.NoError(t, err)
	require.NoError(t, q.Ack(ctx, leased.Receipt))

	// The identity is gone with the task; re-enqueueing is allowed again.
	require.NoError(t, q.Enqueue(ctx, "j1", "same", []byte("a")))
	depth, err := q.Depth(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)
}

func TestMemory_ExpiredLeaseRedelivers(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(20 * time.Millisecond)

	require.NoError(t, q.Enqueue(ctx, "j1", "id1", []byte("payload")))

	first, err := q.Lease(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Worker dies: no ack. The task comes back after the lease window.
	second, err := q.Lease(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, []byte("payload"), second.Payload)
	assert.NotEqual(t, first.Receipt, second.Receipt)

	// The stale receipt acks nothing; the live one drains the queue.
	require.NoError(t, q.Ack(ctx, first.Receipt))
	depth, err := q.Depth(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)

	require.NoError(t, q.Ack(ctx, second.Receipt))
	depth, err = q.Depth(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, depth)
}

func TestMemory_AckedTaskNotRedelivered(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(20 * time.Millisecond)

	require.NoError(t, q.Enqueue(ctx, "j1", "id1", []byte("payload")))
	leased, err := q.Lease(ctx, time.Second)
	require.NoError(t, err)
	require.NoError(t, q.Ack(ctx, leased.Receipt))

	time.Sleep(40 * time.Millisecond)
	again, err := q.Lease(ctx, 30*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestMemory_PurgeJobLeavesOtherJobs(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(time.Minute)

	require.NoError(t, q.Enqueue(ctx, "j1", "a", []byte("1")))
	require.NoError(t, q.Enqueue(ctx, "j1", "b", []byte("2")))
	require.NoError(t, q.Enqueue(ctx, "j2", "c", []byte("3")))

	purged, err := q.PurgeJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	depth, err := q.Depth(ctx, "j2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)
}

func TestMemory_PurgeSkipsLeasedTasks(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(time.Minute)

	require.NoError(t, q.Enqueue(ctx, "j1", "a", []byte("1")))
	require.NoError(t, q.Enqueue(ctx, "j1", "b", []byte("2")))

	leased, err := q.Lease(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, leased)

	purged, err := q.PurgeJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	// The in-flight task is still counted until acked.
	depth, err := q.Depth(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)
}

func TestMemory_LeaseRespectsContext(t *testing.T) {
	q := NewMemory(time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Lease(ctx, time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemory_LeaseWakesOnEnqueue(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(time.Minute)

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Enqueue(ctx, "j1", "id1", []byte("payload"))
	}()

	start := time.Now()
	leased, err := q.Lease(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, leased)
	assert.Less(t, time.Since(start), time.Second)
}
