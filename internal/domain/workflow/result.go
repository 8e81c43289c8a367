package workflow

// TripType names the pipeline variant that produced a result.
type TripType string

const (
	TripSingleCity TripType = "single_city"
	TripMultiCity  TripType = "multi_city"
)

// Result is produced exactly once per run, on success and on failure.
// A failed result still carries every step and transcript message
// collected before the fault.
type Result struct {
	RunID         string    `json:"run_id,omitempty"`
	Success       bool      `json:"success"`
	FinalResponse string    `json:"final_response,omitempty"`
	Transcript    []Message `json:"messages"`
	Steps         []Step    `json:"workflow_steps"`
	TripType      TripType  `json:"trip_type"`
	Error         string    `json:"error,omitempty"`
}

// CountSteps returns how many steps of the given type were recorded.
func (r *Result) CountSteps(t StepType) int {
	n := 0
	for i := range r.Steps {
		if r.Steps[i].Type == t {
			n++
		}
	}
	return n
}
