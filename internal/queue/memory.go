package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Queue with the same lease semantics as the
// durable implementation. Thread-safe; used by tests and single-process
// runs where durability is not needed.
//
// A buffered signal channel (size 1, coalescing) lets Lease wait without
// spinning while remaining context-aware.
type Memory struct {
	mu     sync.Mutex
	ready  []memTask
	leased map[string]memTask // receipt -> task
	ids    map[string]bool    // content identities present (ready or leased)
	lease  time.Duration
	signal chan struct{}
}

type memTask struct {
	id      string
	job     string
	payload []byte
	expiry  time.Time
}

// NewMemory creates an empty in-memory queue with the given lease window.
func NewMemory(lease time.Duration) *Memory {
	if lease <= 0 {
		lease = DefaultLease
	}
	return &Memory{
		leased: make(map[string]memTask),
		ids:    make(map[string]bool),
		lease:  lease,
		signal: make(chan struct{}, 1),
	}
}

// Enqueue implements Queue. Payloads whose identity is already present are
// dropped: duplicate siblings expand identically, so one copy suffices.
func (q *Memory) Enqueue(_ context.Context, job, id string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if id != "" && q.ids[id] {
		return nil
	}
	if id != "" {
		q.ids[id] = true
	}
	q.ready = append(q.ready, memTask{id: id, job: job, payload: payload})

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return nil
}

// reclaimExpired moves lease-expired tasks back to the ready list.
// Caller holds q.mu.
func (q *Memory) reclaimExpired(now time.Time) {
	for receipt, t := range q.leased {
		if now.After(t.expiry) {
			delete(q.leased, receipt)
			q.ready = append(q.ready, t)
		}
	}
}

func (q *Memory) tryLease(now time.Time) *Leased {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.reclaimExpired(now)
	if len(q.ready) == 0 {
		return nil
	}
	t := q.ready[0]
	q.ready[0] = memTask{}
	q.ready = q.ready[1:]

	receipt := uuid.NewString()
	t.expiry = now.Add(q.lease)
	q.leased[receipt] = t
	return &Leased{Receipt: receipt, Job: t.job, Payload: t.payload}
}

// Lease implements Queue.
func (q *Memory) Lease(ctx context.Context, wait time.Duration) (*Leased, error) {
	deadline := time.Now().Add(wait)
	for {
		if l := q.tryLease(time.Now()); l != nil {
			return l, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		// Wake on enqueue signal, a short tick (lease expiry has no
		// signal), the wait deadline, or cancellation.
		tick := 50 * time.Millisecond
		if remaining < tick {
			tick = remaining
		}
		timer := time.NewTimer(tick)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-q.signal:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Ack implements Queue.
func (q *Memory) Ack(_ context.Context, receipt string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.leased[receipt]
	if !ok {
		return nil // lease expired and redelivered; nothing to do
	}
	delete(q.leased, receipt)
	if t.id != "" {
		delete(q.ids, t.id)
	}
	return nil
}

// PurgeJob implements Queue.
func (q *Memory) PurgeJob(_ context.Context, job string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var kept []memTask
	var purged int64
	for _, t := range q.ready {
		if t.job == job {
			purged++
			if t.id != "" {
				delete(q.ids, t.id)
			}
			continue
		}
		kept = append(kept, t)
	}
	q.ready = kept
	return purged, nil
}

// Depth implements Queue.
func (q *Memory) Depth(_ context.Context, job string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var n int64
	for _, t := range q.ready {
		if job == "" || t.job == job {
			n++
		}
	}
	for _, t := range q.leased {
		if job == "" || t.job == job {
			n++
		}
	}
	return n, nil
}
