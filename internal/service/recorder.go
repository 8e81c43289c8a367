package service

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	cfotel "github.com/jaimani/ai-travel-demo/internal/adapter/otel"
	"github.com/jaimani/ai-travel-demo/internal/domain/workflow"
	"github.com/jaimani/ai-travel-demo/internal/logger"
)

// StepSink receives every recorded step of a run. seq is the 1-based
// position of the step in the run's log.
type StepSink interface {
	Deliver(ctx context.Context, seq int, step workflow.Step) error
}

// StepSinkFunc adapts a function to StepSink.
type StepSinkFunc func(ctx context.Context, seq int, step workflow.Step) error

// Deliver calls f.
func (f StepSinkFunc) Deliver(ctx context.Context, seq int, step workflow.Step) error {
	return f(ctx, seq, step)
}

// EventRecorder is a run's append-only step log. Recording never fails:
// sink errors and panics are logged and dropped.
type EventRecorder struct {
	mu    sync.Mutex
	steps []workflow.Step

	deliverMu sync.Mutex
	sinks     []StepSink
	metrics   *cfotel.Metrics
}

// NewEventRecorder creates a recorder forwarding to the given sinks.
func NewEventRecorder(sinks ...StepSink) *EventRecorder {
	return &EventRecorder{sinks: sinks}
}

// SetMetrics enables counting of relay faults.
func (r *EventRecorder) SetMetrics(m *cfotel.Metrics) { r.metrics = m }

// Record appends step and forwards it to every sink in order.
func (r *EventRecorder) Record(ctx context.Context, step workflow.Step) {
	// deliverMu keeps sink order equal to log order.
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	r.steps = append(r.steps, step)
	seq := len(r.steps)
	r.mu.Unlock()

	for _, sink := range r.sinks {
		deliverStep(ctx, sink, seq, step, r.metrics)
	}
}

// deliverStep hands step to sink, logging and counting any error or panic
// instead of returning it.
func deliverStep(ctx context.Context, sink StepSink, seq int, step workflow.Step, m *cfotel.Metrics) {
	defer func() {
		if p := recover(); p != nil {
			relayFault(ctx, step, fmt.Errorf("sink panic: %v", p), m)
		}
	}()
	if err := sink.Deliver(ctx, seq, step); err != nil {
		relayFault(ctx, step, err, m)
	}
}

func relayFault(ctx context.Context, step workflow.Step, err error, m *cfotel.Metrics) {
	logger.From(ctx).Warn("step relay delivery failed", "step_type", step.Type, "error", err)
	if m != nil {
		m.RelayFaults.Add(ctx, 1, metric.WithAttributes(
			attribute.String("step_type", string(step.Type)),
		))
	}
}

// Steps returns a copy of the log.
func (r *EventRecorder) Steps() []workflow.Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]workflow.Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// OnAgentStart implements Hooks.
func (r *EventRecorder) OnAgentStart(ctx context.Context, agentName string) {
	r.Record(ctx, workflow.AgentStart(agentName))
}

// OnLLMStart implements Hooks.
func (r *EventRecorder) OnLLMStart(ctx context.Context, agentName, model string, preview []workflow.Message) {
	r.Record(ctx, workflow.LLMCall(agentName, model, preview))
}

// OnToolStart implements Hooks.
func (r *EventRecorder) OnToolStart(ctx context.Context, agentName, tool, input string) {
	r.Record(ctx, workflow.ToolCall(agentName, tool, input))
}

// OnAgentEnd implements Hooks.
func (r *EventRecorder) OnAgentEnd(ctx context.Context, agentName, output string) {
	r.Record(ctx, workflow.AgentEnd(agentName, output))
}

var _ Hooks = (*EventRecorder)(nil)
