package messagequeue

import "github.com/jaimani/ai-travel-demo/internal/domain/workflow"

// RunStepPayload is the schema for runs.steps.{run_id} messages.
type RunStepPayload struct {
	RunID     string            `json:"run_id"`
	TripType  workflow.TripType `json:"trip_type"`
	Seq       int               `json:"seq"`
	Step      workflow.Step     `json:"step"`
	RequestID string            `json:"request_id,omitempty"`
}

// RunFinishedPayload is the schema for runs.finished.{run_id} messages.
type RunFinishedPayload struct {
	RunID    string            `json:"run_id"`
	TripType workflow.TripType `json:"trip_type"`
	Success  bool              `json:"success"`
	Error    string            `json:"error,omitempty"`
	Steps    int               `json:"steps"`
}
