package workflow

// EventType is the stream event discriminator written as the SSE event name.
type EventType string

const (
	EventWorkflowStep EventType = "workflow_step"
	EventFinalResult  EventType = "final_result"
	EventError        EventType = "error"
	// EventComplete terminates the relay. It is consumed by the broker and
	// never delivered to subscribers.
	EventComplete EventType = "complete"
)

// ErrorPayload is the body of an error event.
type ErrorPayload struct {
	Detail string `json:"detail"`
}

// Event is one item on a plan stream. Payload is a Step, *Result or
// ErrorPayload depending on Type.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// Terminal reports whether a subscriber stops reading after this event.
func (e Event) Terminal() bool {
	return e.Type == EventError || e.Type == EventComplete
}
