package ports

import (
	"context"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

// ReasoningRequest is everything a reasoner sees for one iteration.
type ReasoningRequest struct {
	SessionID string
	System    string
	Tools     []domain.ToolSchema
	Messages  []domain.Turn
	MaxTokens int
}

// ReasoningResponse is one reasoner reply: text fragments and tool calls in
// the order produced, plus the tokens spent on this call.
type ReasoningResponse struct {
	Content    []domain.ContentBlock
	Usage      domain.TokenUsage
	StopReason string
}

// Reasoner chooses text and tool calls for a conversation.
type Reasoner interface {
	Respond(ctx context.Context, req ReasoningRequest) (*ReasoningResponse, error)
	// Model names the backing model; it keys the pricing table.
	Model() string
}
