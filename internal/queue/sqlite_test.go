package queue

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestQueue(t *testing.T, lease time.Duration) *SQLite {
	t.Helper()
	q, err := OpenSQLite(filepath.Join(t.TempDir(), "queue.db"), lease)
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q
}

func TestSQLite_OpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	for i := 0; i < 3; i++ {
		q, err := OpenSQLite(path, time.Minute)
		require.NoError(t, err, "open iteration %d", i)
		q.Close()
	}
}

func TestSQLite_TaskSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.db")

	q1, err := OpenSQLite(path, time.Minute)
	require.NoError(t, err)
	require.NoError(t, q1.Enqueue(ctx, "j1", "id1", []byte("payload")))
	require.NoError(t, q1.Close())

	q2, err := OpenSQLite(path, time.Minute)
	require.NoError(t, err)
	defer q2.Close()

	leased, err := q2.Lease(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, leased)
	assert.Equal(t, []byte("payload"), leased.Payload)
}

func TestSQLite_EnqueueLeaseAck(t *testing.T) {
	ctx := context.Background()
	q := openTestQueue(t, time.Minute)

	require.NoError(t, q.Enqueue(ctx, "j1", "id1", []byte("payload")))

	leased, err := q.Lease(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, leased)
	assert.Equal(t, "j1", leased.Job)

	require.NoError(t, q.Ack(ctx, leased.Receipt))
	depth, err := q.Depth(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, depth)
}

func TestSQLite_DuplicateIdentityDropped(t *testing.T) {
	ctx := context.Background()
	q := openTestQueue(t, time.Minute)

	require.NoError(t, q.Enqueue(ctx, "j1", "same", []byte("a")))
	require.NoError(t, q.Enqueue(ctx, "j1", "same", []byte("b")))

	depth, err := q.Depth(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)
}

func TestSQLite_LeasedTaskNotLeasableAgain(t *testing.T) {
	ctx := context.Background()
	q := openTestQueue(t, time.Minute)

	require.NoError(t, q.Enqueue(ctx, "j1", "id1", []byte("payload")))

	first, err := q.Lease(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := q.Lease(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestSQLite_ExpiredLeaseRedelivers(t *testing.T) {
	ctx := context.Background()
	q := openTestQueue(t, time.Minute)

	require.NoError(t, q.Enqueue(ctx, "j1", "id1", []byte("payload")))

	first, err := q.Lease(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Jump the clock past the lease window instead of sleeping.
	q.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	second, err := q.Lease(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, []byte("payload"), second.Payload)
	assert.NotEqual(t, first.Receipt, second.Receipt)

	// Stale receipt matches nothing.
	require.NoError(t, q.Ack(ctx, first.Receipt))
	depth, err := q.Depth(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)
}

func TestSQLite_PurgeSkipsLeased(t *testing.T) {
	ctx := context.Background()
	q := openTestQueue(t, time.Minute)

	require.NoError(t, q.Enqueue(ctx, "j1", "a", []byte("1")))
	require.NoError(t, q.Enqueue(ctx, "j1", "b", []byte("2")))
	require.NoError(t, q.Enqueue(ctx, "j2", "c", []byte("3")))

	leased, err := q.Lease(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, leased)

	purged, err := q.PurgeJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	depth, err := q.Depth(ctx, "j2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)
}

func TestSQLite_FIFOByEnqueueTime(t *testing.T) {
	ctx := context.Background()
	q := openTestQueue(t, time.Minute)

	base := time.Now()
	q.now = func() time.Time { return base }
	require.NoError(t, q.Enqueue(ctx, "j1", "first", []byte("1")))
	q.now = func() time.Time { return base.Add(time.Second) }
	require.NoError(t, q.Enqueue(ctx, "j1", "second", []byte("2")))

	leased, err := q.Lease(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, leased)
	assert.Equal(t, []byte("1"), leased.Payload)
}
