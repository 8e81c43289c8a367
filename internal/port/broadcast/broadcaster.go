// Package broadcast defines the port for pushing live run activity to
// connected dashboard clients.
package broadcast

import (
	"context"

	"github.com/jaimani/ai-travel-demo/internal/domain/workflow"
)

// Event types sent to dashboard clients.
const (
	EventRunStep     = "run.step"
	EventRunFinished = "run.finished"
)

// RunStep is the payload of EventRunStep.
type RunStep struct {
	RunID    string            `json:"run_id"`
	TripType workflow.TripType `json:"trip_type"`
	Seq      int               `json:"seq"`
	Step     workflow.Step     `json:"step"`
}

// RunFinished is the payload of EventRunFinished.
type RunFinished struct {
	RunID    string            `json:"run_id"`
	TripType workflow.TripType `json:"trip_type"`
	Success  bool              `json:"success"`
	Error    string            `json:"error,omitempty"`
}

// Broadcaster sends real-time events to all connected clients.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
