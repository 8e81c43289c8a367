package messagequeue_test

import (
	"testing"

	"github.com/jaimani/ai-travel-demo/internal/port/messagequeue"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		data    string
		wantErr bool
	}{
		{"valid step", messagequeue.StepSubject("r1"), `{"run_id":"r1","seq":1,"step":{"type":"agent_start","agent":"PlannerAgent","message":"x"}}`, false},
		{"step missing run", messagequeue.StepSubject("r1"), `{"seq":1,"step":{"type":"agent_start"}}`, true},
		{"step missing type", messagequeue.StepSubject("r1"), `{"run_id":"r1","step":{}}`, true},
		{"step wrong type", messagequeue.StepSubject("r1"), `{"run_id":"r1","seq":"one"}`, true},
		{"valid finished", messagequeue.FinishedSubject("r1"), `{"run_id":"r1","success":true,"steps":12}`, false},
		{"finished missing run", messagequeue.FinishedSubject("r1"), `{"success":false}`, true},
		{"invalid json", messagequeue.StepSubject("r1"), `{not json`, true},
		{"unknown subject", "other.subject", `{"anything":1}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := messagequeue.Validate(tt.subject, []byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubjects(t *testing.T) {
	if got := messagequeue.StepSubject("abc"); got != "runs.steps.abc" {
		t.Errorf("StepSubject = %s", got)
	}
	if got := messagequeue.FinishedSubject("abc"); got != "runs.finished.abc" {
		t.Errorf("FinishedSubject = %s", got)
	}
}
