package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		assert.Equal(t, 0.7, req.Temperature)
		assert.Equal(t, 1000, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, message{Role: "system", Content: "be brief"}, req.Messages[0])
		assert.Equal(t, message{Role: "user", Content: "draft it"}, req.Messages[1])

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Subject: Proposal"}}]}`))
	}))
	defer server.Close()

	text, err := NewClient(server.URL, "", 5*time.Second).Generate(context.Background(), "sk-test", "be brief", "draft it")

	require.NoError(t, err)
	assert.Equal(t, "Subject: Proposal", text)
}

func TestGenerateProviderErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   usecase.GenerationErrorKind
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "invalid key",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"message":"Incorrect API key provided"}}`,
			wantKind:   usecase.KindInvalidCredential,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid OpenAI API key. Please check your OPENAI_API_KEY secret.",
		},
		{
			name:       "rate limited",
			status:     http.StatusTooManyRequests,
			body:       `{"error":{"message":"Rate limit reached"}}`,
			wantKind:   usecase.KindRateLimited,
			wantStatus: http.StatusTooManyRequests,
			wantMsg:    "OpenAI API rate limit exceeded. Please try again later.",
		},
		{
			name:       "server error keeps provider status",
			status:     http.StatusServiceUnavailable,
			body:       `{"error":{"message":"The engine is currently overloaded"}}`,
			wantKind:   usecase.KindUpstream,
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    "OpenAI API error: The engine is currently overloaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, "", 5*time.Second).Generate(context.Background(), "sk", "s", "p")

			var ge *usecase.GenerationError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, tt.wantKind, ge.Kind)
			assert.Equal(t, tt.wantStatus, ge.Status)
			assert.Equal(t, tt.wantMsg, ge.Message)
		})
	}
}
