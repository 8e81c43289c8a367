package nats

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/jaimani/ai-travel-demo/internal/domain/workflow"
	"github.com/jaimani/ai-travel-demo/internal/logger"
	"github.com/jaimani/ai-travel-demo/internal/port/messagequeue"
)

var _ messagequeue.Queue = (*Queue)(nil)

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	q, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := q.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return q
}

func stepPayload(t *testing.T, runID string) []byte {
	t.Helper()
	data, err := json.Marshal(messagequeue.RunStepPayload{
		RunID: runID,
		Seq:   1,
		Step:  workflow.AgentStart("PlannerAgent"),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestQueue_PublishSubscribe(t *testing.T) {
	q := testConnect(t)
	runID := "test-" + t.Name()
	subject := messagequeue.StepSubject(runID)

	received := make(chan messagequeue.RunStepPayload, 1)
	stop, err := q.Subscribe(context.Background(), subject, func(_ context.Context, _ string, data []byte) error {
		var p messagequeue.RunStepPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		received <- p
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	if err := q.Publish(context.Background(), subject, stepPayload(t, runID)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case p := <-received:
		if p.RunID != runID || p.Step.Agent != "PlannerAgent" {
			t.Errorf("unexpected payload %+v", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestQueue_RequestIDPropagation(t *testing.T) {
	q := testConnect(t)
	runID := "test-" + t.Name()
	subject := messagequeue.StepSubject(runID)

	const wantReqID = "req-abc-123"

	var (
		mu       sync.Mutex
		gotReqID string
		done     = make(chan struct{})
		once     sync.Once
	)

	stop, err := q.Subscribe(context.Background(), subject, func(ctx context.Context, _ string, _ []byte) error {
		mu.Lock()
		gotReqID = logger.RequestID(ctx)
		mu.Unlock()
		once.Do(func() { close(done) })
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	ctx := logger.WithRequestID(context.Background(), wantReqID)
	if err := q.Publish(ctx, subject, stepPayload(t, runID)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	mu.Lock()
	defer mu.Unlock()

	if gotReqID != wantReqID {
		t.Errorf("request ID = %q, want %q", gotReqID, wantReqID)
	}
}

func TestQueue_PublishRejectsInvalidPayload(t *testing.T) {
	q := testConnect(t)

	err := q.Publish(context.Background(), messagequeue.StepSubject("r"), []byte(`{"seq":1}`))
	if err == nil {
		t.Fatal("expected schema validation error")
	}
}

func TestQueue_IsConnected(t *testing.T) {
	q := testConnect(t)
	if !q.IsConnected() {
		t.Fatal("expected connected queue")
	}
}
