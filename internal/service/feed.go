package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	cfotel "github.com/jaimani/ai-travel-demo/internal/adapter/otel"
	"github.com/jaimani/ai-travel-demo/internal/domain/workflow"
	"github.com/jaimani/ai-travel-demo/internal/logger"
	"github.com/jaimani/ai-travel-demo/internal/port/broadcast"
	"github.com/jaimani/ai-travel-demo/internal/port/messagequeue"
)

// RunFeed publishes run activity to observers other than the requester,
// such as dashboards.
type RunFeed interface {
	Sink(runID string, tripType workflow.TripType) StepSink
	Finished(ctx context.Context, res *workflow.Result)
}

// feedRelay hands one run's steps to a RunFeed from its own goroutine.
// Deliver only enqueues, so a stalled dashboard or queue never holds up
// the run; the goroutine exits after publishing the finished result.
type feedRelay struct {
	q *fifo[feedItem]
}

type feedItem struct {
	seq    int
	step   workflow.Step
	result *workflow.Result
}

func startFeedRelay(ctx context.Context, feed RunFeed, runID string, tripType workflow.TripType, m *cfotel.Metrics, wg *sync.WaitGroup) *feedRelay {
	r := &feedRelay{q: newFIFO[feedItem]()}
	sink := feed.Sink(runID, tripType)
	ctx = context.WithoutCancel(ctx)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			item, ok := r.q.pop(ctx)
			if !ok {
				return
			}
			if item.result != nil {
				publishFinished(ctx, feed, item.result)
				return
			}
			deliverStep(ctx, sink, item.seq, item.step, m)
		}
	}()
	return r
}

// Deliver implements StepSink.
func (r *feedRelay) Deliver(_ context.Context, seq int, step workflow.Step) error {
	r.q.push(feedItem{seq: seq, step: step})
	return nil
}

// finish queues the run's result; nothing may be delivered after it.
func (r *feedRelay) finish(res *workflow.Result) {
	r.q.push(feedItem{result: res})
}

func publishFinished(ctx context.Context, feed RunFeed, res *workflow.Result) {
	defer func() {
		if p := recover(); p != nil {
			logger.From(ctx).Warn("run feed panicked on finish", "panic", p)
		}
	}()
	feed.Finished(ctx, res)
}

// BroadcastFeed pushes run activity straight to a local broadcaster.
type BroadcastFeed struct {
	b broadcast.Broadcaster
}

// NewBroadcastFeed creates a feed over b.
func NewBroadcastFeed(b broadcast.Broadcaster) *BroadcastFeed {
	return &BroadcastFeed{b: b}
}

// Sink implements RunFeed.
func (f *BroadcastFeed) Sink(runID string, tripType workflow.TripType) StepSink {
	return StepSinkFunc(func(ctx context.Context, seq int, step workflow.Step) error {
		f.b.BroadcastEvent(ctx, broadcast.EventRunStep, broadcast.RunStep{
			RunID: runID, TripType: tripType, Seq: seq, Step: step,
		})
		return nil
	})
}

// Finished implements RunFeed.
func (f *BroadcastFeed) Finished(ctx context.Context, res *workflow.Result) {
	f.b.BroadcastEvent(ctx, broadcast.EventRunFinished, broadcast.RunFinished{
		RunID: res.RunID, TripType: res.TripType, Success: res.Success, Error: res.Error,
	})
}

// QueueFeed publishes run activity to the message queue so every instance
// can relay it to its own dashboard clients.
type QueueFeed struct {
	q messagequeue.Queue
}

// NewQueueFeed creates a feed publishing to q.
func NewQueueFeed(q messagequeue.Queue) *QueueFeed {
	return &QueueFeed{q: q}
}

// Sink implements RunFeed.
func (f *QueueFeed) Sink(runID string, tripType workflow.TripType) StepSink {
	subject := messagequeue.StepSubject(runID)
	return StepSinkFunc(func(ctx context.Context, seq int, step workflow.Step) error {
		data, err := json.Marshal(messagequeue.RunStepPayload{
			RunID:     runID,
			TripType:  tripType,
			Seq:       seq,
			Step:      step,
			RequestID: logger.RequestID(ctx),
		})
		if err != nil {
			return fmt.Errorf("marshal run step: %w", err)
		}
		return f.q.Publish(ctx, subject, data)
	})
}

// Finished implements RunFeed.
func (f *QueueFeed) Finished(ctx context.Context, res *workflow.Result) {
	data, err := json.Marshal(messagequeue.RunFinishedPayload{
		RunID:    res.RunID,
		TripType: res.TripType,
		Success:  res.Success,
		Error:    res.Error,
		Steps:    len(res.Steps),
	})
	if err != nil {
		slog.Error("marshal run finished", "run_id", res.RunID, "error", err)
		return
	}
	if err := f.q.Publish(ctx, messagequeue.FinishedSubject(res.RunID), data); err != nil {
		logger.From(ctx).Warn("publish run finished failed", "error", err)
	}
}

// StartStepRelay subscribes to every run subject on q and rebroadcasts the
// messages to b. The returned function stops the relay.
func StartStepRelay(ctx context.Context, q messagequeue.Queue, b broadcast.Broadcaster) (func(), error) {
	return q.Subscribe(ctx, messagequeue.SubjectRunsAll, func(ctx context.Context, subject string, data []byte) error {
		switch {
		case strings.HasPrefix(subject, messagequeue.SubjectRunSteps+"."):
			var p messagequeue.RunStepPayload
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("decode run step: %w", err)
			}
			b.BroadcastEvent(ctx, broadcast.EventRunStep, broadcast.RunStep{
				RunID: p.RunID, TripType: p.TripType, Seq: p.Seq, Step: p.Step,
			})
		case strings.HasPrefix(subject, messagequeue.SubjectRunFinished+"."):
			var p messagequeue.RunFinishedPayload
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("decode run finished: %w", err)
			}
			b.BroadcastEvent(ctx, broadcast.EventRunFinished, broadcast.RunFinished{
				RunID: p.RunID, TripType: p.TripType, Success: p.Success, Error: p.Error,
			})
		default:
			slog.Debug("step relay: ignoring subject", "subject", subject)
		}
		return nil
	})
}
