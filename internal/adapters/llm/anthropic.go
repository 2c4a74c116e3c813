package llm

import (
	"context"
	"strings"

	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/ports"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

// Anthropic calls the Messages API.
type Anthropic struct {
	apiKey  string
	baseURL string
	model   string
	http    *poster
}

var _ ports.Reasoner = (*Anthropic)(nil)

func NewAnthropic(opts Options) *Anthropic {
	base := opts.BaseURL
	if base == "" {
		base = anthropicBaseURL
	}
	return &Anthropic{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(base, "/"),
		model:   opts.Model,
		http:    newPoster(opts),
	}
}

func (a *Anthropic) Model() string { return a.model }

type anthropicRequest struct {
	Model     string              `json:"model"`
	MaxTokens int                 `json:"max_tokens"`
	System    string              `json:"system,omitempty"`
	Messages  []anthropicMessage  `json:"messages"`
	Tools     []domain.ToolSchema `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    domain.Role      `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type      domain.BlockType `json:"type"`
	Text      string           `json:"text,omitempty"`
	ID        string           `json:"id,omitempty"`
	Name      string           `json:"name,omitempty"`
	Input     any              `json:"input,omitempty"`
	ToolUseID string           `json:"tool_use_id,omitempty"`
	Content   string           `json:"content,omitempty"`
	IsError   bool             `json:"is_error,omitempty"`
}

type anthropicResponse struct {
	Model      string           `json:"model"`
	Content    []anthropicBlock `json:"content"`
	StopReason string           `json:"stop_reason"`
	Usage      struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

func (a *Anthropic) Respond(ctx context.Context, req ports.ReasoningRequest) (*ports.ReasoningResponse, error) {
	body := anthropicRequest{
		Model:     a.model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages:  toAnthropicMessages(req.Messages),
		Tools:     req.Tools,
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := a.http.postJSON(ctx, a.baseURL+"/v1/messages", headers, body, &resp); err != nil {
		return nil, err
	}

	out := &ports.ReasoningResponse{
		StopReason: resp.StopReason,
		Usage: domain.TokenUsage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			Model:        a.model,
		},
	}
	for _, b := range resp.Content {
		switch b.Type {
		case domain.BlockText:
			out.Content = append(out.Content, domain.TextBlock(b.Text))
		case domain.BlockToolUse:
			input, _ := b.Input.(map[string]any)
			if input == nil {
				input = map[string]any{}
			}
			out.Content = append(out.Content, domain.ContentBlock{Type: domain.BlockToolUse, ID: b.ID, Name: b.Name, Input: input})
		}
	}
	return out, nil
}

// toAnthropicMessages drops empty text so replayed history never carries
// blank blocks, and drops turns left without content.
func toAnthropicMessages(turns []domain.Turn) []anthropicMessage {
	msgs := make([]anthropicMessage, 0, len(turns))
	for _, t := range turns {
		var blocks []anthropicBlock
		for _, b := range t.Blocks {
			switch b.Type {
			case domain.BlockText:
				if strings.TrimSpace(b.Text) == "" {
					continue
				}
				blocks = append(blocks, anthropicBlock{Type: b.Type, Text: b.Text})
			case domain.BlockToolUse:
				input := b.Input
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropicBlock{Type: b.Type, ID: b.ID, Name: b.Name, Input: input})
			case domain.BlockToolResult:
				blocks = append(blocks, anthropicBlock{Type: b.Type, ToolUseID: b.ToolUseID, Content: b.Content, IsError: b.IsError})
			}
		}
		if len(blocks) == 0 {
			continue
		}
		msgs = append(msgs, anthropicMessage{Role: t.Role, Content: blocks})
	}
	return msgs
}
