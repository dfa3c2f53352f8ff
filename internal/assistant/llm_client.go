package assistant

import (
	"context"
	"strings"
)

// Role says who authored a Turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the conversation handed to a provider. System turns
// are folded into the provider's system instruction.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TokenUsage mirrors the counts providers report; zero when unreported.
type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// LLMRequest is provider neutral. Zero TopK, TopP and MaxTokens keep the
// provider defaults, as does a negative Temperature.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []Turn
	MaxTokens   int32
	Temperature float32
	TopK        int32
	TopP        float32
}

func (r LLMRequest) hasTemperature() bool {
	return r.Temperature >= 0
}

// systemPrompt joins the non-blank system blocks.
func (r LLMRequest) systemPrompt() string {
	blocks := make([]string, 0, len(r.System))
	for _, b := range r.System {
		if b = strings.TrimSpace(b); b != "" {
			blocks = append(blocks, b)
		}
	}
	return strings.Join(blocks, "\n\n")
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// LLMClient completes one request against a hosted model. Gemini, Bedrock
// and the fallback chain all satisfy it.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
