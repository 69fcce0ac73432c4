package harness

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hl/bingo-sub000/pkg/engine"
	"github.com/hl/bingo-sub000/pkg/fact"
)

// Result pairs a submitted fact with the rule-execution results its
// eventual commit produced.
type Result struct {
	Fact    *fact.Fact
	Outcome []engine.RuleExecutionResult
	Err     error
}

// Harness lets many producer goroutines submit facts concurrently while
// keeping every mutation of the engine's compiled network on a single
// goroutine, since pkg/network's node memories are not safe for concurrent
// writers. Workers only ever touch the shareable, read/write-locked
// fact.SafeStore; the engine itself is committed to serially.
type Harness struct {
	queue   *Queue[*fact.Fact]
	engine  *engine.Engine
	store   *fact.SafeStore
	workers int
	batch   int
}

// New creates a harness around eng, staging incoming facts in store before
// they reach the engine. workers bounds how many goroutines validate facts
// concurrently; batch bounds how many validated facts the committer
// forwards to engine.ProcessFacts at a time.
func New(eng *engine.Engine, store *fact.SafeStore, workers, queueCapacity, batch int) *Harness {
	if workers < 1 {
		workers = 1
	}
	if batch < 1 {
		batch = 1
	}
	return &Harness{
		queue:   NewQueue[*fact.Fact](queueCapacity),
		engine:  eng,
		store:   store,
		workers: workers,
		batch:   batch,
	}
}

// Submit stages f in the shared store and enqueues it for processing. Safe
// to call from any number of goroutines concurrently.
func (h *Harness) Submit(ctx context.Context, f *fact.Fact) error {
	h.store.Insert(f)
	return h.queue.Push(ctx, f)
}

// Close signals that no more facts will be submitted. Run drains whatever
// remains queued before returning.
func (h *Harness) Close() { h.queue.Close() }

// Run drains the queue until it is closed and empty or ctx is cancelled,
// validating facts across h.workers goroutines and committing them to the
// engine in batches of up to h.batch from one dedicated committer goroutine,
// while the calling goroutine waits for all of them to finish. Every commit
// result, successful or not, is sent to results; Run closes results before
// returning.
func (h *Harness) Run(ctx context.Context, results chan<- Result) error {
	defer close(results)

	validated := make(chan *fact.Fact, h.workers*h.batch)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers + 1)

	for i := 0; i < h.workers; i++ {
		g.Go(func() error {
			for {
				f, ok := h.queue.Pop(gctx)
				if !ok {
					return nil
				}
				if err := validateFact(f); err != nil {
					results <- Result{Fact: f, Err: fmt.Errorf("harness: invalid fact %d: %w", f.ID, err)}
					continue
				}
				select {
				case validated <- f:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}

	committerDone := make(chan struct{})
	go func() {
		defer close(committerDone)
		h.commitLoop(gctx, validated, results)
	}()

	workersErr := g.Wait()
	close(validated)
	<-committerDone

	if workersErr != nil && workersErr != context.Canceled {
		return workersErr
	}
	return nil
}

// commitLoop drains validated in batches of up to h.batch, calling
// engine.ProcessFacts once per batch — the only place ProcessFacts is ever
// invoked, preserving single-writer access to the compiled network.
func (h *Harness) commitLoop(ctx context.Context, validated <-chan *fact.Fact, results chan<- Result) {
	pending := make([]*fact.Fact, 0, h.batch)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		outcome, err := h.engine.ProcessFacts(pending)
		for _, f := range pending {
			results <- Result{Fact: f, Outcome: outcome, Err: err}
		}
		pending = pending[:0]
	}

	for {
		select {
		case f, ok := <-validated:
			if !ok {
				flush()
				return
			}
			pending = append(pending, f)
			if len(pending) >= h.batch {
				flush()
			}
		case <-ctx.Done():
			flush()
			return
		}
	}
}

func validateFact(f *fact.Fact) error {
	if f == nil {
		return fmt.Errorf("nil fact")
	}
	if f.ID == 0 {
		return fmt.Errorf("fact has zero ID")
	}
	return nil
}
