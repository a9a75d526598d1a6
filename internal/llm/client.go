// Package llm defines the text-generation client used by the analysis
// pipeline, with Bedrock and Gemini implementations.
package llm

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is an internal message representation that can include system prompts.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type Request struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type Response struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// Client is the narrow text-generation interface the pipeline depends on.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Prompt builds a single-user-message request, the common case for the
// pipeline's structured prompts.
func Prompt(model, prompt string, temperature float32, maxTokens int32) Request {
	return Request{
		Model:       model,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}
