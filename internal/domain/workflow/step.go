// Package workflow defines the step log, result and stream event types
// produced by a planning run.
package workflow

import "fmt"

// StepType discriminates the WorkflowStep variants.
type StepType string

const (
	StepAgentStart StepType = "agent_start"
	StepAgentEnd   StepType = "agent_end"
	StepToolCall   StepType = "tool_call"
	StepLLMCall    StepType = "llm_call"
	StepHandoff    StepType = "handoff"
)

// Message is one transcript entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Step is a tagged record of one lifecycle or handoff event. Which fields
// are populated depends on Type; Message is always a human-readable line.
type Step struct {
	Type    StepType `json:"type"`
	Message string   `json:"message"`

	Agent string `json:"agent,omitempty"`

	// agent_end
	Response string `json:"response,omitempty"`

	// tool_call
	Tool      string `json:"tool,omitempty"`
	ToolInput string `json:"tool_input,omitempty"`

	// llm_call
	Model  string    `json:"model,omitempty"`
	Prompt []Message `json:"prompt,omitempty"`

	// handoff
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Context string `json:"context,omitempty"`
}

// AgentStart records an agent beginning its invocation.
func AgentStart(agent string) Step {
	return Step{
		Type:    StepAgentStart,
		Agent:   agent,
		Message: fmt.Sprintf("%s is starting...", agent),
	}
}

// AgentEnd records an agent's final output.
func AgentEnd(agent, response string) Step {
	return Step{
		Type:     StepAgentEnd,
		Agent:    agent,
		Response: response,
		Message:  fmt.Sprintf("%s completed", agent),
	}
}

// ToolCall records an agent invoking a tool with the given JSON arguments.
func ToolCall(agent, tool, input string) Step {
	return Step{
		Type:      StepToolCall,
		Agent:     agent,
		Tool:      tool,
		ToolInput: input,
		Message:   fmt.Sprintf("%s is calling %s", agent, tool),
	}
}

// LLMCall records a model call; prompt is the truncated tail of the model input.
func LLMCall(agent, model string, prompt []Message) Step {
	return Step{
		Type:    StepLLMCall,
		Agent:   agent,
		Model:   model,
		Prompt:  prompt,
		Message: fmt.Sprintf("%s is calling LLM (%s)", agent, model),
	}
}

// Handoff records a transition between stages. context may be empty.
func Handoff(from, to, context string) Step {
	return Step{
		Type:    StepHandoff,
		From:    from,
		To:      to,
		Context: context,
		Message: fmt.Sprintf("Handing off from %s to %s", from, to),
	}
}
