package providers

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const systemPrompt = "You are a regulatory affairs analyst for natural health products. " +
	"Follow the user's instructions exactly and answer with JSON only."

// ModelCompleter adapts an eino chat model to the single-prompt completion
// contract the classifier expects.
type ModelCompleter struct {
	model model.ToolCallingChatModel
}

// NewModelCompleter wraps a chat model.
func NewModelCompleter(m model.ToolCallingChatModel) *ModelCompleter {
	return &ModelCompleter{model: m}
}

// Complete sends the prompt and returns the model's text reply.
func (c *ModelCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("model generate failed: %w", err)
	}
	if resp == nil || resp.Content == "" {
		return "", fmt.Errorf("model returned empty response")
	}
	return resp.Content, nil
}
