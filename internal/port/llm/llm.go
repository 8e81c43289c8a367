// Package llm defines the chat model port agents execute against.
package llm

import "context"

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model request to invoke a tool with JSON arguments.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry of the conversation sent to the model. Assistant
// messages may carry tool calls; tool messages answer one call by ID.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolSpec advertises a callable tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a single chat completion call.
type Request struct {
	Model    string
	Messages []Message
	Tools    []ToolSpec
}

// Response is the model's reply: final text, tool calls, or both.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// ChatModel is the port interface for chat completion providers.
type ChatModel interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}
