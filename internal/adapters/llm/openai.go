package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/ports"
)

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAI calls any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	http    *poster
}

var _ ports.Reasoner = (*OpenAI)(nil)

func NewOpenAI(opts Options) *OpenAI {
	base := opts.BaseURL
	if base == "" {
		base = openAIBaseURL
	}
	return &OpenAI{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(base, "/"),
		model:   opts.Model,
		http:    newPoster(opts),
	}
}

func (o *OpenAI) Model() string { return o.model }

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAITool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string             `json:"name"`
		Description string             `json:"description"`
		Parameters  domain.InputSchema `json:"parameters"`
	} `json:"function"`
}

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	Tools     []openAITool    `json:"tools,omitempty"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (o *OpenAI) Respond(ctx context.Context, req ports.ReasoningRequest) (*ports.ReasoningResponse, error) {
	body := openAIRequest{
		Model:     o.model,
		Messages:  toOpenAIMessages(req.System, req.Messages),
		Tools:     toOpenAITools(req.Tools),
		MaxTokens: req.MaxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}

	var resp openAIResponse
	if err := o.http.postJSON(ctx, o.baseURL+"/chat/completions", headers, body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("API error (type=%s): %s", resp.Error.Type, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("API returned no choices (model=%s)", resp.Model)
	}

	choice := resp.Choices[0]
	out := &ports.ReasoningResponse{
		StopReason: choice.FinishReason,
		Usage: domain.TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			Model:        o.model,
		},
	}
	if choice.Message.Content != "" {
		out.Content = append(out.Content, domain.TextBlock(choice.Message.Content))
	}
	for _, tc := range choice.Message.ToolCalls {
		input := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
				return nil, fmt.Errorf("failed to decode arguments of %s: %w", tc.Function.Name, err)
			}
		}
		out.Content = append(out.Content, domain.ContentBlock{
			Type:  domain.BlockToolUse,
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: input,
		})
	}
	return out, nil
}

func toOpenAITools(schemas []domain.ToolSchema) []openAITool {
	tools := make([]openAITool, 0, len(schemas))
	for _, s := range schemas {
		var t openAITool
		t.Type = "function"
		t.Function.Name = s.Name
		t.Function.Description = s.Description
		t.Function.Parameters = s.InputSchema
		tools = append(tools, t)
	}
	return tools
}

// toOpenAIMessages flattens block turns: tool results become "tool" role
// messages and tool uses become assistant tool_calls.
func toOpenAIMessages(system string, turns []domain.Turn) []openAIMessage {
	msgs := make([]openAIMessage, 0, len(turns)+1)
	if system != "" {
		msgs = append(msgs, openAIMessage{Role: "system", Content: system})
	}
	for _, t := range turns {
		switch t.Role {
		case domain.RoleAssistant:
			m := openAIMessage{Role: "assistant", Content: t.Text()}
			for _, call := range t.ToolCalls() {
				args, err := json.Marshal(call.Input)
				if err != nil || call.Input == nil {
					args = []byte("{}")
				}
				var tc openAIToolCall
				tc.ID = call.ID
				tc.Type = "function"
				tc.Function.Name = call.Name
				tc.Function.Arguments = string(args)
				m.ToolCalls = append(m.ToolCalls, tc)
			}
			if m.Content == "" && len(m.ToolCalls) == 0 {
				continue
			}
			msgs = append(msgs, m)
		default:
			for _, b := range t.Blocks {
				if b.Type == domain.BlockToolResult {
					msgs = append(msgs, openAIMessage{Role: "tool", Content: b.Content, ToolCallID: b.ToolUseID})
				}
			}
			if text := t.Text(); text != "" {
				msgs = append(msgs, openAIMessage{Role: "user", Content: text})
			}
		}
	}
	return msgs
}
