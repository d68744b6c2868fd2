// Package ai provides the product analysis backend used by scans. The real
// implementation talks to any OpenAI-compatible chat completions endpoint;
// a noop stands in when no API key is configured so the rest of the API
// keeps working in development.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Analyzer produces a short authenticity summary for a scanned product
type Analyzer interface {
	Analyze(ctx context.Context, scanType, input string) (string, error)
}

const systemPrompt = "You are a product authenticity analyst. Given a product " +
	"listing, label or ingredient list, summarize in a short paragraph whether " +
	"the product appears genuine and flag any red flags you see."

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client calls an OpenAI-compatible chat completions API
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClient returns an analyzer against baseURL using model. The HTTP
// timeout is deliberately generous; completions regularly take seconds.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Analyze(ctx context.Context, scanType, input string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Scan type: %s\n\n%s", scanType, input)},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("analysis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("analysis response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("analysis failed: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("analysis failed: status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("analysis returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Noop satisfies Analyzer without calling out anywhere
type Noop struct{}

func (Noop) Analyze(_ context.Context, _, _ string) (string, error) {
	return "analysis unavailable: no AI backend configured", nil
}
