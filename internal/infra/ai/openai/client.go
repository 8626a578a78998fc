package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/resume-scrubber/internal/domain/ai"
	"github.com/bryanwahyu/resume-scrubber/internal/infra/ai/prompt"
)

const (
	defaultModel     = openai.GPT4
	defaultMaxTokens = 2000
)

type Options struct {
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
}

var (
	_ domai.Scrubber  = (*Client)(nil)
	_ domai.Assistant = (*Client)(nil)
)

// Client implements the scrub and assistant ports on top of go-openai.
// The underlying API client is built on first use so a missing key fails the
// request that needed it, not the process.
type Client struct {
	opts   Options
	apiKey func() (string, error)
	logger *log.Logger
	api    atomic.Pointer[openai.Client]
}

func NewClient(apiKey func() (string, error), opts Options, logger *log.Logger) *Client {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{opts: opts, apiKey: apiKey, logger: logger}
}

// client returns the cached API client, building it when absent. Two racing
// callers may both build one; only the first stored survives.
func (c *Client) client() (*openai.Client, error) {
	if api := c.api.Load(); api != nil {
		return api, nil
	}
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}
	cfg := openai.DefaultConfig(key)
	if c.opts.BaseURL != "" {
		cfg.BaseURL = c.opts.BaseURL
	}
	if c.api.CompareAndSwap(nil, openai.NewClientWithConfig(cfg)) {
		c.logger.Debug("openai client initialised", "base_url", cfg.BaseURL)
	}
	return c.api.Load(), nil
}

func (c *Client) Scrub(ctx context.Context, text string) (string, error) {
	api, err := c.client()
	if err != nil {
		return "", err
	}

	model := c.opts.Model
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(text)},
		},
	}
	// Reasoning models reject max_tokens and a custom temperature
	if isReasoningModel(model) {
		req.MaxCompletionTokens = c.opts.MaxTokens
	} else {
		req.MaxTokens = c.opts.MaxTokens
		req.Temperature = c.opts.Temperature
	}

	resp, err := api.CreateChatCompletion(ctx, req)
	observe(opChatCompletion, err)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", mapError(err))
	}
	if len(resp.Choices) == 0 {
		return "", domai.ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// mapError tags provider rate-limit responses with ErrQuotaExceeded.
func mapError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", domai.ErrQuotaExceeded, err)
	}
	return err
}
