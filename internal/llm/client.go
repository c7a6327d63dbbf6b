// Package llm wraps a chat-completion model behind a single narrow
// interface, so the planner and finder can treat it as a pure text-in,
// text-out boundary and fall back to deterministic heuristics whenever it
// errors or returns something unparseable. The interface shape is grounded
// on gohypo's GeneratorAdapter/LLMClient split.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Client is the narrow boundary every caller in this service depends on.
type Client interface {
	// Complete sends a system+user turn and returns the assistant's raw text.
	// Callers that expect JSON are responsible for parsing it themselves and
	// falling back to a deterministic default on any error.
	Complete(ctx context.Context, system, user string) (string, error)
}

// Config configures the OpenAI-backed implementation.
type Config struct {
	APIKey      string
	BaseURL     string // optional override
	Model       string // default "gpt-4o-mini"
	Temperature float64
	MaxTokens   int64
	Timeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = openai.ChatModelGPT4oMini
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	return c
}

// openAIClient is the default Client backed by the OpenAI chat completions
// API in JSON mode.
type openAIClient struct {
	cfg    Config
	client openai.Client
}

// New constructs a Client. It never returns an error: an empty APIKey
// produces a client that will fail on first call, surfaced the same way
// any other upstream outage would be.
func New(cfg Config) Client {
	cfg = cfg.withDefaults()
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &openAIClient{cfg: cfg, client: openai.NewClient(opts...)}
}

func (c *openAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(c.cfg.MaxTokens),
		Temperature: openai.Float(c.cfg.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
