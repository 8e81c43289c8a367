package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jaimani/ai-travel-demo/internal/domain/workflow"
	"github.com/jaimani/ai-travel-demo/internal/service"
)

func TestEventRecorder_DeliversInOrder(t *testing.T) {
	var seqs []int
	sink := service.StepSinkFunc(func(_ context.Context, seq int, _ workflow.Step) error {
		seqs = append(seqs, seq)
		return nil
	})
	rec := service.NewEventRecorder(sink)
	ctx := context.Background()

	rec.OnAgentStart(ctx, "A")
	rec.OnLLMStart(ctx, "A", "m", nil)
	rec.OnToolStart(ctx, "A", "t", "{}")
	rec.OnAgentEnd(ctx, "A", "out")

	if n := len(rec.Steps()); n != 4 {
		t.Fatalf("recorded %d steps", n)
	}
	for i, s := range seqs {
		if s != i+1 {
			t.Fatalf("seqs = %v", seqs)
		}
	}
	want := []workflow.StepType{workflow.StepAgentStart, workflow.StepLLMCall, workflow.StepToolCall, workflow.StepAgentEnd}
	assertStepTypes(t, rec.Steps(), want...)
}

func TestEventRecorder_SinkFaultsAreContained(t *testing.T) {
	var good []workflow.Step
	failing := service.StepSinkFunc(func(context.Context, int, workflow.Step) error {
		return errors.New("relay closed")
	})
	panicking := service.StepSinkFunc(func(context.Context, int, workflow.Step) error {
		panic("boom")
	})
	ok := service.StepSinkFunc(func(_ context.Context, _ int, s workflow.Step) error {
		good = append(good, s)
		return nil
	})
	rec := service.NewEventRecorder(failing, panicking, ok)

	rec.Record(context.Background(), workflow.AgentStart("A"))
	rec.Record(context.Background(), workflow.AgentEnd("A", "x"))

	if n := len(rec.Steps()); n != 2 || len(good) != 2 {
		t.Fatalf("recorded %d, delivered %d", n, len(good))
	}
}

func TestEventRecorder_StepsIsACopy(t *testing.T) {
	rec := service.NewEventRecorder()
	rec.Record(context.Background(), workflow.AgentStart("A"))

	steps := rec.Steps()
	steps[0].Agent = "changed"
	if rec.Steps()[0].Agent != "A" {
		t.Fatal("Steps exposed internal state")
	}
}

func TestEventRecorder_ConcurrentRecord(t *testing.T) {
	var mu sync.Mutex
	var seqs []int
	rec := service.NewEventRecorder(service.StepSinkFunc(func(_ context.Context, seq int, _ workflow.Step) error {
		mu.Lock()
		seqs = append(seqs, seq)
		mu.Unlock()
		return nil
	}))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Record(context.Background(), workflow.AgentStart("A"))
		}()
	}
	wg.Wait()

	if n := len(rec.Steps()); n != 50 {
		t.Fatalf("recorded %d steps", n)
	}
	for i, s := range seqs {
		if s != i+1 {
			t.Fatalf("sink saw seq %d at position %d", s, i)
		}
	}
}
