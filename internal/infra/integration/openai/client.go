package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xavierca1/ligue-crm/internal/usecase"
)

const (
	DefaultBaseURL = "https://api.openai.com"
	DefaultModel   = "gpt-3.5-turbo"
	CredentialKey  = "OPENAI_API_KEY"

	temperature = 0.7
	maxTokens   = 1000
)

// Client is the chat-completion variant of the email draft provider.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
}

func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return "OpenAI" }

func (c *Client) CredentialKey() string { return CredentialKey }

func (c *Client) Generate(ctx context.Context, apiKey, system, prompt string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read openai response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", &usecase.GenerationError{
			Kind:    usecase.KindInvalidCredential,
			Status:  http.StatusUnauthorized,
			Message: "Invalid OpenAI API key. Please check your OPENAI_API_KEY secret.",
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &usecase.GenerationError{
			Kind:    usecase.KindRateLimited,
			Status:  http.StatusTooManyRequests,
			Message: "OpenAI API rate limit exceeded. Please try again later.",
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", &usecase.GenerationError{
			Kind:    usecase.KindUpstream,
			Status:  resp.StatusCode,
			Message: "OpenAI API error: " + errorMessage(raw),
		}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode openai response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}

func errorMessage(raw []byte) string {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	return string(raw)
}
