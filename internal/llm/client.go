// Package llm is the completion-service collaborator. One prompt in, one
// reply out; no retries, a failure surfaces to the caller.
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
)

type Client struct {
	api   openai.Client
	model openai.ChatModel
}

func NewClient(api openai.Client, model string) *Client {
	return &Client{api: api, model: openai.ChatModel(model)}
}

// Complete sends the rendered prompt as a single user message. The
// persona lives inside the prompt text, so no system message is attached.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: c.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty message content")
	}
	return text, nil
}
