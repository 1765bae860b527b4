package emailfn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type envelope struct {
	Success bool                     `json:"success"`
	Data    *entity.EmailDraftResult `json:"data,omitempty"`
	Message string                   `json:"message,omitempty"`
}

// Client invokes the deployed generate-deal-email function.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) GenerateDealEmail(ctx context.Context, in entity.EmailDraftRequest) (*entity.EmailDraftResult, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create draft request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("email function unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read email function response: %w", err)
	}

	var out envelope
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &usecase.GenerationError{
			Kind:    usecase.KindUpstream,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("email function returned status %d", resp.StatusCode),
			Err:     err,
		}
	}

	if !out.Success || out.Data == nil {
		msg := out.Message
		if msg == "" {
			msg = fmt.Sprintf("email function returned status %d", resp.StatusCode)
		}
		return nil, &usecase.GenerationError{Kind: kindFor(resp.StatusCode), Status: resp.StatusCode, Message: msg}
	}

	return out.Data, nil
}

func kindFor(status int) usecase.GenerationErrorKind {
	switch status {
	case http.StatusBadRequest:
		return usecase.KindValidation
	case http.StatusUnauthorized:
		return usecase.KindMissingCredential
	case http.StatusMethodNotAllowed:
		return usecase.KindMethodNotAllowed
	case http.StatusTooManyRequests:
		return usecase.KindRateLimited
	default:
		return usecase.KindUpstream
	}
}
