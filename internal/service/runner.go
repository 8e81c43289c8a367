package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	cfotel "github.com/jaimani/ai-travel-demo/internal/adapter/otel"
	"github.com/jaimani/ai-travel-demo/internal/config"
	"github.com/jaimani/ai-travel-demo/internal/domain/agent"
	"github.com/jaimani/ai-travel-demo/internal/domain/workflow"
	"github.com/jaimani/ai-travel-demo/internal/port/llm"
	"github.com/jaimani/ai-travel-demo/internal/resilience"
)

// NoResponse is the output of an agent that produced no text at all.
const NoResponse = "No response generated"

const truncationMarker = "... (truncated)"

// Hooks receives an agent's lifecycle callbacks in the order they happen.
type Hooks interface {
	OnAgentStart(ctx context.Context, agentName string)
	OnLLMStart(ctx context.Context, agentName, model string, preview []workflow.Message)
	OnToolStart(ctx context.Context, agentName, tool, input string)
	OnAgentEnd(ctx context.Context, agentName, output string)
}

// RunOutput is what one agent invocation produced. On error it holds the
// transcript collected up to the fault.
type RunOutput struct {
	Output     string
	Transcript []workflow.Message
}

// AgentRunner executes a single agent: it alternates model calls and tool
// calls until the model answers without requesting tools.
type AgentRunner struct {
	model           llm.ChatModel
	breaker         *resilience.Breaker
	maxTurns        int
	previewMessages int
	previewChars    int
	metrics         *cfotel.Metrics
}

// NewAgentRunner creates a runner. breaker may be nil.
func NewAgentRunner(model llm.ChatModel, breaker *resilience.Breaker, cfg config.Orchestrator) *AgentRunner {
	return &AgentRunner{
		model:           model,
		breaker:         breaker,
		maxTurns:        cfg.MaxTurns,
		previewMessages: cfg.PreviewMessages,
		previewChars:    cfg.PreviewChars,
	}
}

// SetMetrics enables metric recording.
func (r *AgentRunner) SetMetrics(m *cfotel.Metrics) { r.metrics = m }

// Run invokes def with prompt as the user message. A turn is one model
// call plus the tool calls it requested.
func (r *AgentRunner) Run(ctx context.Context, def agent.Definition, prompt string, hooks Hooks) (*RunOutput, error) {
	out := &RunOutput{}
	hooks.OnAgentStart(ctx, def.Name)

	tools := make([]llm.ToolSpec, len(def.Tools))
	for i, t := range def.Tools {
		tools[i] = llm.ToolSpec{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()}
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: def.Instructions},
		{Role: llm.RoleUser, Content: prompt},
	}

	final := ""
	answered := false
	for turn := 0; turn < r.maxTurns && !answered; turn++ {
		hooks.OnLLMStart(ctx, def.Name, def.Model, r.preview(messages))
		if r.metrics != nil {
			r.metrics.LLMCalls.Add(ctx, 1, metric.WithAttributes(
				attribute.String("agent", def.Name),
				attribute.String("model", def.Model),
			))
		}

		resp, err := r.complete(ctx, &llm.Request{Model: def.Model, Messages: messages, Tools: tools})
		if err != nil {
			return out, fmt.Errorf("agent %s: model call: %w", def.Name, err)
		}

		if resp.Content != "" {
			out.Transcript = append(out.Transcript, workflow.Message{Role: string(llm.RoleAssistant), Content: resp.Content})
		}
		if len(resp.ToolCalls) == 0 {
			final = resp.Content
			answered = true
			break
		}

		calls := withCallIDs(resp.ToolCalls)
		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: calls})
		for _, call := range calls {
			result, err := r.callTool(ctx, def, call, hooks)
			if err != nil {
				return out, err
			}
			out.Transcript = append(out.Transcript, workflow.Message{Role: string(llm.RoleTool), Content: result})
			messages = append(messages, llm.Message{Role: llm.RoleTool, Content: result, ToolCallID: call.ID})
		}
	}

	if !answered {
		return out, fmt.Errorf("agent %s: %w (%d)", def.Name, agent.ErrMaxTurnsExceeded, r.maxTurns)
	}

	out.Output = outputOf(final, out.Transcript)
	hooks.OnAgentEnd(ctx, def.Name, out.Output)
	return out, nil
}

func (r *AgentRunner) complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if r.breaker == nil {
		return r.model.Complete(ctx, req)
	}
	var resp *llm.Response
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		resp, err = r.model.Complete(ctx, req)
		return err
	})
	return resp, err
}

// callTool runs one requested tool. Tool failures are reported back to the
// model as the call's result; an unknown tool aborts the agent.
func (r *AgentRunner) callTool(ctx context.Context, def agent.Definition, call llm.ToolCall, hooks Hooks) (string, error) {
	tool, ok := def.Tool(call.Name)
	if !ok {
		return "", fmt.Errorf("agent %s: %w: %s", def.Name, agent.ErrUnknownTool, call.Name)
	}

	hooks.OnToolStart(ctx, def.Name, call.Name, call.Arguments)
	if r.metrics != nil {
		r.metrics.ToolCalls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("agent", def.Name),
			attribute.String("tool", call.Name),
		))
	}

	ctx, span := cfotel.StartToolCallSpan(ctx, call.ID, call.Name)
	defer span.End()

	start := time.Now()
	result, err := tool.Call(ctx, call.Arguments)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return "", fmt.Errorf("agent %s: tool %s: %w", def.Name, call.Name, err)
		}
		span.RecordError(err)
		slog.Warn("tool call failed", "agent", def.Name, "tool", call.Name, "error", err)
		return fmt.Sprintf("An error occurred while running the tool: %v", err), nil
	}
	slog.Debug("tool call", "agent", def.Name, "tool", call.Name, "duration", time.Since(start))
	return result, nil
}

// preview returns the trailing non-empty messages of the model input, each
// capped in length.
func (r *AgentRunner) preview(messages []llm.Message) []workflow.Message {
	out := make([]workflow.Message, 0, r.previewMessages)
	for i := len(messages) - 1; i >= 0 && len(out) < r.previewMessages; i-- {
		m := messages[i]
		if m.Content == "" {
			continue
		}
		out = append(out, workflow.Message{Role: string(m.Role), Content: truncate(m.Content, r.previewChars)})
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + truncationMarker
}

func outputOf(final string, transcript []workflow.Message) string {
	if final != "" {
		return final
	}
	if n := len(transcript); n > 0 && transcript[n-1].Content != "" {
		return transcript[n-1].Content
	}
	return NoResponse
}

// withCallIDs fills in IDs for providers that omit them.
func withCallIDs(calls []llm.ToolCall) []llm.ToolCall {
	out := make([]llm.ToolCall, len(calls))
	for i, c := range calls {
		if c.ID == "" {
			c.ID = "call_" + uuid.NewString()
		}
		out[i] = c
	}
	return out
}
