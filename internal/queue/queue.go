// Package queue provides the durable at-least-once work queue that carries
// serialized expansion tasks between workers. The queue understands only
// opaque payloads tagged with a job identifier; it knows nothing about
// motifs or graphs.
package queue

import (
	"context"
	"time"
)

// DefaultLease is how long a leased task stays invisible before the queue
// redelivers it to another worker.
const DefaultLease = 30 * time.Second

// Leased is a task handed to exactly one worker until its lease expires or
// it is acknowledged. Receipt identifies the lease for Ack.
type Leased struct {
	Receipt string
	Job     string
	Payload []byte
}

// Queue is the scheduling contract: durable, at-least-once, no ordering
// guarantee. A leased task that is never acknowledged becomes leasable
// again after the lease window, so consumers must tolerate redelivery.
//
// Implemented by SQLite (durable, multi-process) and Memory (tests and
// single-process runs).
type Queue interface {
	// Enqueue adds a task payload for the given job. Implementations may
	// collapse payloads with identical content-addressed identities.
	Enqueue(ctx context.Context, job, id string, payload []byte) error

	// Lease pops one available task, holding it for the lease window.
	// Blocks up to wait; returns (nil, nil) if nothing became available.
	Lease(ctx context.Context, wait time.Duration) (*Leased, error)

	// Ack removes a leased task permanently. Acking an expired lease is
	// a no-op (the task may already be running elsewhere).
	Ack(ctx context.Context, receipt string) error

	// PurgeJob removes all unleased tasks for a job (cancellation).
	// In-flight leased tasks run to completion or lease expiry.
	PurgeJob(ctx context.Context, job string) (int64, error)

	// Depth returns the number of outstanding tasks, optionally filtered
	// by job (empty string counts everything). Leased tasks count.
	Depth(ctx context.Context, job string) (int64, error)
}
