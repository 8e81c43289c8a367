package messagequeue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch {
	case strings.HasPrefix(subject, SubjectRunSteps+"."):
		var p RunStepPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.RunID == "" || p.Step.Type == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("run_id and step.type are required"))
		}
	case strings.HasPrefix(subject, SubjectRunFinished+"."):
		var p RunFinishedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.RunID == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("run_id is required"))
		}
	}
	return nil
}
