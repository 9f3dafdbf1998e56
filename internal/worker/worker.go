// Package worker runs the stateless expansion loop: lease one task, expand
// its candidate once, fan out children or commit a completed mapping, ack.
// All coordination between workers happens through the queue and the result
// store; workers share no mutable state.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/motiq/motiq/internal/graph"
	"github.com/motiq/motiq/internal/iso"
	"github.com/motiq/motiq/internal/metrics"
	"github.com/motiq/motiq/internal/motif"
	"github.com/motiq/motiq/internal/queue"
	"github.com/motiq/motiq/internal/results"
	"github.com/motiq/motiq/internal/task"
)

// Config tunes one worker.
type Config struct {
	// LeaseWait bounds how long a single RunOne blocks waiting for a task.
	LeaseWait time.Duration
	// Verify re-checks every completed mapping with the independent
	// verifier before committing. Costs one extra pass per result.
	Verify bool
}

// DefaultLeaseWait is the default per-iteration lease poll window.
const DefaultLeaseWait = 5 * time.Second

// Worker processes one task at a time. Construct with New; the dependencies
// are shared service handles built once at process start and passed in
// explicitly (no ambient singletons).
type Worker struct {
	queue   queue.Queue
	results *results.Store
	host    graph.Accessor
	ranker  motif.Ranker
	cfg     Config
	log     *slog.Logger
}

// New creates a worker over the shared queue, result store, and host graph.
// A nil ranker defaults to the degree ranking.
func New(q queue.Queue, rs *results.Store, host graph.Accessor, ranker motif.Ranker, cfg Config) *Worker {
	if ranker == nil {
		ranker = motif.DegreeRanker{}
	}
	if cfg.LeaseWait <= 0 {
		cfg.LeaseWait = DefaultLeaseWait
	}
	return &Worker{
		queue:   q,
		results: rs,
		host:    host,
		ranker:  ranker,
		cfg:     cfg,
		log:     slog.Default(),
	}
}

// RunOne leases and processes a single task.
// Returns processed=false when the queue yielded nothing within the wait
// window. Infrastructure errors leave the task unacknowledged so the
// queue's lease expiry redelivers it.
func (w *Worker) RunOne(ctx context.Context) (processed bool, err error) {
	leased, err := w.queue.Lease(ctx, w.cfg.LeaseWait)
	if err != nil {
		return false, err
	}
	if leased == nil {
		return false, nil
	}

	t, err := task.Decode(leased.Payload)
	if err != nil {
		// Producer bug, not transient: ack and drop so the queue drains.
		w.drop(ctx, leased, err)
		return true, nil
	}

	m, err := motif.FromDoc(t.Motif)
	if err != nil {
		w.drop(ctx, leased, err)
		return true, nil
	}

	order, ok := motif.OrderFromRankMap(m, t.Interestingness)
	if !ok {
		order = w.ranker.Rank(m)
	}

	start := time.Now()
	children, err := iso.Expand(ctx, iso.Candidate(t.Candidate), m, w.host, order)
	metrics.ExpandDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if iso.IsInvalidCandidate(err) {
			w.drop(ctx, leased, err)
			return true, nil
		}
		// Host accessor failure: leave leased, redelivery retries.
		return true, fmt.Errorf("expand candidate for job %s: %w", t.Job, err)
	}

	outcome := "dead_end"
	for _, child := range children {
		if child.Complete(m) {
			if err := w.commit(ctx, t, child); err != nil {
				return true, err
			}
			outcome = "completed"
			continue
		}
		if err := w.fanOut(ctx, t, child); err != nil {
			return true, err
		}
		if outcome == "dead_end" {
			outcome = "expanded"
		}
	}

	if err := w.queue.Ack(ctx, leased.Receipt); err != nil {
		return true, fmt.Errorf("ack task for job %s: %w", t.Job, err)
	}
	metrics.TasksProcessed.WithLabelValues(outcome).Inc()

	w.log.Debug("task processed",
		"job", t.Job,
		"bound", len(t.Candidate),
		"children", len(children),
		"outcome", outcome,
	)
	return true, nil
}

// drop acknowledges a malformed task without producing output.
// One bad task must not halt the job's other branches.
func (w *Worker) drop(ctx context.Context, leased *queue.Leased, cause error) {
	w.log.Error("dropping malformed task",
		"job", leased.Job,
		"error", cause,
	)
	if err := w.queue.Ack(ctx, leased.Receipt); err != nil {
		w.log.Error("ack of dropped task failed", "job", leased.Job, "error", err)
	}
	metrics.TasksProcessed.WithLabelValues("dropped").Inc()
}

// fanOut re-enqueues one still-partial child candidate.
func (w *Worker) fanOut(ctx context.Context, parent task.Task, child iso.Candidate) error {
	childTask := task.Task{
		Job:             parent.Job,
		Motif:           parent.Motif,
		Candidate:       child,
		Directed:        parent.Directed,
		Interestingness: parent.Interestingness,
	}
	payload, err := childTask.Encode()
	if err != nil {
		return fmt.Errorf("encode child task: %w", err)
	}
	id, err := childTask.Hash()
	if err != nil {
		return fmt.Errorf("hash child task: %w", err)
	}
	if err := w.queue.Enqueue(ctx, childTask.Job, id, payload); err != nil {
		return fmt.Errorf("enqueue child task: %w", err)
	}
	metrics.ChildrenEnqueued.Inc()
	return nil
}

// commit writes one completed mapping to the result store.
// The deterministic record key makes redelivered commits idempotent.
func (w *Worker) commit(ctx context.Context, t task.Task, cand iso.Candidate) error {
	if w.cfg.Verify {
		m, err := motif.FromDoc(t.Motif)
		if err != nil {
			return fmt.Errorf("verify completed mapping: %w", err)
		}
		if err := iso.Verify(ctx, cand, m, w.host); err != nil {
			return fmt.Errorf("verify completed mapping: %w", err)
		}
	}

	key, err := task.ResultID(t.Job, cand)
	if err != nil {
		return fmt.Errorf("result key: %w", err)
	}
	inserted, err := w.results.Write(ctx, results.Record{
		Key:       key,
		ID:        uuid.NewString(),
		Job:       t.Job,
		Candidate: cand,
		Motif:     t.Motif,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("commit result: %w", err)
	}

	dedup := "new"
	if !inserted {
		dedup = "duplicate"
	}
	metrics.ResultsCommitted.WithLabelValues(dedup).Inc()

	w.log.Info("completed mapping committed",
		"job", t.Job,
		"key", key,
		"inserted", inserted,
	)
	return nil
}

// Run processes tasks until the context is cancelled. Errors from
// individual tasks are logged and the loop continues; redelivery handles
// the rest ("log and continue" keeps one bad branch from stopping a job).
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		processed, err := w.RunOne(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Error("task processing failed", "error", err)
			continue
		}
		if !processed {
			// Queue idle; refresh the depth gauge while we are cheap.
			if depth, derr := w.queue.Depth(ctx, ""); derr == nil {
				metrics.QueueDepth.Set(float64(depth))
			}
		}
	}
}
