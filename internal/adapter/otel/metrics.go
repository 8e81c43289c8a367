package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "travel-planner"

// Metrics holds all planner metric instruments.
type Metrics struct {
	RunsStarted   metric.Int64Counter
	RunsCompleted metric.Int64Counter
	RunsFailed    metric.Int64Counter
	RunsRejected  metric.Int64Counter
	LLMCalls      metric.Int64Counter
	ToolCalls     metric.Int64Counter
	RelayFaults   metric.Int64Counter
	RunDuration   metric.Float64Histogram
	StageDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.RunsStarted, "planner.runs.started", "Number of planning runs started"},
		{&m.RunsCompleted, "planner.runs.completed", "Number of planning runs that succeeded"},
		{&m.RunsFailed, "planner.runs.failed", "Number of planning runs that failed"},
		{&m.RunsRejected, "planner.runs.rejected", "Number of plan requests rejected before any agent ran"},
		{&m.LLMCalls, "planner.llm.calls", "Number of model calls"},
		{&m.ToolCalls, "planner.toolcalls", "Number of tool calls"},
		{&m.RelayFaults, "planner.relay.faults", "Number of steps a relay sink failed to deliver"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}

	m.RunDuration, err = meter.Float64Histogram("planner.run.duration_seconds",
		metric.WithDescription("Planning run duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.StageDuration, err = meter.Float64Histogram("planner.stage.duration_seconds",
		metric.WithDescription("Per-agent stage duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
