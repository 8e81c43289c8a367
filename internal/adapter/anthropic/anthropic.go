// Package anthropic implements llm.ChatModel on the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/goccy/go-json"

	"github.com/jaimani/ai-travel-demo/internal/config"
	"github.com/jaimani/ai-travel-demo/internal/port/llm"
)

const defaultMaxTokens = 4096

// Model adapts the Anthropic client to llm.ChatModel.
type Model struct {
	client      *anthropic.Client
	temperature float64
	maxTokens   int64
}

// New builds a Model from LLM configuration.
func New(cfg config.LLM, extra ...option.RequestOption) *Model {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	client := anthropic.NewClient(opts...)
	return &Model{client: &client, temperature: cfg.Temperature, maxTokens: maxTokens}
}

// Complete sends one non-streaming Messages request.
func (m *Model) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	system, messages := buildMessages(req.Messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: m.maxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}
	if m.temperature > 0 {
		params.Temperature = anthropic.Float(m.temperature)
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	out := &llm.Response{FinishReason: string(resp.StopReason)}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Content += block.AsText().Text
		case "tool_use":
			use := block.AsToolUse()
			args := "{}"
			if len(use.Input) > 0 {
				if raw, err := json.Marshal(use.Input); err == nil {
					args = string(raw)
				}
			}
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{ID: use.ID, Name: use.Name, Arguments: args})
		}
	}
	return out, nil
}

// buildMessages splits out system text and folds consecutive tool results
// into a single user turn, as the Messages API requires.
func buildMessages(msgs []llm.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var (
		system  []anthropic.TextBlockParam
		out     []anthropic.MessageParam
		results []anthropic.ContentBlockParamUnion
	)
	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}

	for _, msg := range msgs {
		if msg.Role == llm.RoleTool {
			results = append(results, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
			continue
		}
		flush()

		switch msg.Role {
		case llm.RoleSystem:
			if msg.Content != "" {
				system = append(system, anthropic.TextBlockParam{Text: msg.Content})
			}
		case llm.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input any = map[string]any{}
				if tc.Arguments != "" {
					_ = json.Unmarshal([]byte(tc.Arguments), &input)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			if msg.Content != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		}
	}
	flush()
	return system, out
}

func buildTools(specs []llm.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(specs))
	for i, spec := range specs {
		schema := anthropic.ToolInputSchemaParam{}
		if props, ok := spec.Parameters["properties"]; ok {
			schema.Properties = props
		}
		schema.Required = requiredFields(spec.Parameters["required"])

		tool := anthropic.ToolUnionParamOfTool(schema, spec.Name)
		if spec.Description != "" && tool.OfTool != nil {
			tool.OfTool.Description = anthropic.String(spec.Description)
		}
		tools[i] = tool
	}
	return tools
}

func requiredFields(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
