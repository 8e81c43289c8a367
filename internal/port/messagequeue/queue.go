// Package messagequeue defines the message queue port (interface) used to
// fan workflow steps out across service instances.
package messagequeue

import "context"

// Handler processes a message received from the queue.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages matching the subject
	// (wildcards allowed). The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects used for run activity. Step subjects are suffixed with the run ID.
const (
	SubjectRunSteps    = "runs.steps"    // runs.steps.{run_id}
	SubjectRunFinished = "runs.finished" // runs.finished.{run_id}
	SubjectRunsAll     = "runs.>"
)

// StepSubject returns the subject a run's steps are published on.
func StepSubject(runID string) string {
	return SubjectRunSteps + "." + runID
}

// FinishedSubject returns the subject a run's completion is published on.
func FinishedSubject(runID string) string {
	return SubjectRunFinished + "." + runID
}
