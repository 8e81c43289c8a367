package service

import (
	"context"
	"sync"

	"github.com/jaimani/ai-travel-demo/internal/domain/trip"
	"github.com/jaimani/ai-travel-demo/internal/domain/workflow"
	"github.com/jaimani/ai-travel-demo/internal/logger"
)

// StreamService runs a plan in the background and relays its steps to the
// caller as they are recorded.
type StreamService struct {
	pipeline *PipelineService
	workers  sync.WaitGroup
}

// NewStreamService creates a stream service over p.
func NewStreamService(p *PipelineService) *StreamService {
	return &StreamService{pipeline: p}
}

// PlanTripStream validates req and applies the entitlement gate before
// returning. The returned channel yields workflow_step events in log order,
// then exactly one final_result or error event, and is then closed.
//
// The run itself is detached from ctx: cancelling ctx only stops delivery.
func (s *StreamService) PlanTripStream(ctx context.Context, req trip.PlanRequest) (<-chan workflow.Event, error) {
	prompts, err := s.pipeline.admit(ctx, &req)
	if err != nil {
		return nil, err
	}

	q := newFIFO[workflow.Event]()
	out := make(chan workflow.Event)

	runCtx := context.WithoutCancel(ctx)
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		defer q.push(workflow.Event{Type: workflow.EventComplete})
		defer func() {
			if r := recover(); r != nil {
				logger.From(runCtx).Error("plan stream worker panicked", "panic", r)
				q.push(workflow.Event{Type: workflow.EventError, Payload: workflow.ErrorPayload{Detail: "internal error"}})
			}
		}()

		sink := StepSinkFunc(func(_ context.Context, _ int, step workflow.Step) error {
			q.push(workflow.Event{Type: workflow.EventWorkflowStep, Payload: step})
			return nil
		})
		res := s.pipeline.execute(runCtx, prompts, sink)
		if res.Success {
			q.push(workflow.Event{Type: workflow.EventFinalResult, Payload: res})
			return
		}
		q.push(workflow.Event{Type: workflow.EventError, Payload: workflow.ErrorPayload{Detail: res.Error}})
	}()

	go s.pump(ctx, q, out)
	return out, nil
}

// Wait blocks until every detached run has finished or ctx is done.
func (s *StreamService) Wait(ctx context.Context) error {
	return waitGroup(ctx, &s.workers)
}

// pump moves events from q to out until a terminal event. complete is
// consumed here and never delivered.
func (s *StreamService) pump(ctx context.Context, q *fifo[workflow.Event], out chan<- workflow.Event) {
	defer close(out)
	for {
		ev, ok := q.pop(ctx)
		if !ok {
			return
		}
		if ev.Type == workflow.EventComplete {
			return
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
		if ev.Terminal() {
			return
		}
	}
}

// fifo is an unbounded queue so a slow consumer never blocks the run
// that is producing items.
type fifo[T any] struct {
	mu     sync.Mutex
	items  []T
	notify chan struct{}
}

func newFIFO[T any]() *fifo[T] {
	return &fifo[T]{notify: make(chan struct{}, 1)}
}

func (q *fifo[T]) push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// pop blocks until an item is available or ctx is done.
func (q *fifo[T]) pop(ctx context.Context) (T, bool) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			q.mu.Unlock()
			return v, true
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return zero, false
		}
	}
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
