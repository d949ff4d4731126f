// Package llm answers questions about a session log with the OpenAI API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 150
)

// Options configures a Client.
type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64

	// Stream writes answer deltas to StreamWriter as they arrive.
	Stream       bool
	StreamWriter io.Writer

	// RequestOptions are appended to every client built by this package.
	RequestOptions []option.RequestOption
}

// Answer is the model's reply to one question.
type Answer struct {
	Content  string
	Streamed bool
}

// Client wraps the OpenAI SDK client.
type Client struct {
	opts   Options
	client openai.Client
}

// New builds a Client from opts, filling in defaults.
func New(opts Options) *Client {
	opts.APIKey = strings.TrimSpace(opts.APIKey)
	opts.BaseURL = strings.TrimSpace(opts.BaseURL)
	opts.Model = strings.TrimSpace(opts.Model)
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.StreamWriter == nil {
		opts.StreamWriter = io.Discard
	}
	return &Client{opts: opts, client: newOpenAIClient(opts, opts.APIKey)}
}

func newOpenAIClient(opts Options, apiKey string) openai.Client {
	reqOpts := []option.RequestOption{}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}
	reqOpts = append(reqOpts, opts.RequestOptions...)
	return openai.NewClient(reqOpts...)
}

// Verify checks key with a live model listing. It returns false without an error
// when the API rejects the key.
func (c *Client) Verify(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, nil
	}
	client := newOpenAIClient(c.opts, key)
	if _, err := client.Models.List(ctx); err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return false, nil
		}
		return false, fmt.Errorf("verify api key: %w", err)
	}
	return true, nil
}

// Ask sends question with the session log as context.
func (c *Client) Ask(ctx context.Context, question, sessionLog string) (Answer, error) {
	if c.opts.APIKey == "" {
		return Answer{}, errors.New("api key is not set")
	}
	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(c.opts.Model),
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage(BuildPrompt(question, sessionLog))},
		MaxTokens: openai.Int(c.opts.MaxTokens),
	}
	message, streamed, err := c.runChatOnce(ctx, params)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Content: strings.TrimSpace(message.Content), Streamed: streamed}, nil
}

// runChatOnce sends a single request and optionally streams deltas.
func (c *Client) runChatOnce(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletionMessage, bool, error) {
	if !c.opts.Stream {
		completion, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return openai.ChatCompletionMessage{}, false, err
		}
		if len(completion.Choices) == 0 {
			return openai.ChatCompletionMessage{}, false, errors.New("empty completion choices")
		}
		return completion.Choices[0].Message, false, nil
	}

	streamResp := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer streamResp.Close()

	acc := openai.ChatCompletionAccumulator{}
	streamed := false
	for streamResp.Next() {
		chunk := streamResp.Current()
		if !acc.AddChunk(chunk) {
			return openai.ChatCompletionMessage{}, streamed, errors.New("failed to accumulate stream")
		}
		if len(chunk.Choices) > 0 {
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				_, _ = io.WriteString(c.opts.StreamWriter, delta)
				streamed = true
			}
		}
	}
	if err := streamResp.Err(); err != nil {
		return openai.ChatCompletionMessage{}, streamed, err
	}
	if len(acc.Choices) == 0 {
		return openai.ChatCompletionMessage{}, streamed, errors.New("empty streamed completion choices")
	}
	if streamed && !strings.HasSuffix(acc.Choices[0].Message.Content, "\n") {
		_, _ = fmt.Fprintln(c.opts.StreamWriter)
	}
	return acc.Choices[0].Message, streamed, nil
}
