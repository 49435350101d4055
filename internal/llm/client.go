package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Client talks to an OpenAI-compatible chat completions API (llama.cpp server).
type Client struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	client    *http.Client
}

// NewClient creates a new LLM client. maxTokens bounds every Generate call.
func NewClient(baseURL, apiKey, model string, maxTokens int) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIKey:    apiKey,
		Model:     model,
		MaxTokens: maxTokens,
		client:    newHTTPClient(),
	}
}

// ChatRequest represents the request payload for chat completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature"`
}

// ChatChoice represents a single choice in the chat response.
type ChatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []ChatChoice `json:"choices"`
}

// ChatWithMessages sends a chat completion request and returns the first
// choice's content as-is.
func (c *Client) ChatWithMessages(ctx context.Context, messages []Message, params ChatParams) (string, error) {
	model := params.Model
	if model == "" {
		model = c.Model
	}

	payload := ChatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}

	var chatResp ChatResponse
	if err := postJSON(ctx, c.client, c.BaseURL+"/v1/chat/completions", c.APIKey, payload, &chatResp); err != nil {
		return "", err
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Generate completes prompt with greedy decoding, bounded by the client's
// MaxTokens, and returns the trimmed output. Blank output is an error.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := c.ChatWithMessages(ctx, []Message{{Role: "user", Content: prompt}}, ChatParams{
		MaxTokens:   c.MaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}
