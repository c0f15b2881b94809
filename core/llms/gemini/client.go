package gemini

import (
	"context"
	"fmt"
	"os"

	"github.com/tesslearn/tessa-core/core/llms"
)

const DefaultModel = "gemini-2.0-flash"

// Client carries the credentials and model selection so the session engine
// can stream prompts without handling them itself.
type Client struct {
	apiKey string
	model  string
}

func NewClient(model string) (*Client, error) {
	apiKey, ok := os.LookupEnv("GEMINI_API_KEY")
	if !ok {
		return nil, fmt.Errorf("gemini api key not found")
	}

	if model == "" {
		model = DefaultModel
	}

	return &Client{apiKey: apiKey, model: model}, nil
}

func (c *Client) PromptWithStream(ctx context.Context, prompt *string, systemPrompt string, opts ...llms.StreamingPromptOption) llms.Stream {
	return PromptWithStream(ctx, c.apiKey, c.model, prompt, systemPrompt, opts...)
}
