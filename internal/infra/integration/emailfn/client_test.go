package emailfn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

func TestGenerateDealEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme", body["dealName"])
		assert.Equal(t, "won", body["newStage"])
		assert.Equal(t, float64(1500), body["dealValue"])
		assert.Equal(t, "J. Lee", body["contactName"])

		w.Write([]byte(`{"success":true,"data":{"email":"Subject: Welcome","stage":"won","dealName":"Acme"}}`))
	}))
	defer server.Close()

	value := decimal.NewFromInt(1500)
	got, err := NewClient(server.URL, 5*time.Second).GenerateDealEmail(context.Background(), entity.EmailDraftRequest{
		DealName:    "Acme",
		NewStage:    "won",
		DealValue:   &value,
		ContactName: "J. Lee",
	})

	require.NoError(t, err)
	assert.Equal(t, &entity.EmailDraftResult{Email: "Subject: Welcome", Stage: "won", DealName: "Acme"}, got)
}

func TestGenerateDealEmailFailureEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"Gemini API key not configured. Please add GEMINI_API_KEY secret."}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, 5*time.Second).GenerateDealEmail(context.Background(), entity.EmailDraftRequest{DealName: "a", NewStage: "won"})

	var ge *usecase.GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, usecase.KindMissingCredential, ge.Kind)
	assert.Equal(t, http.StatusUnauthorized, ge.Status)
	assert.Contains(t, ge.Message, "GEMINI_API_KEY")
}

func TestGenerateDealEmailNotJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, 5*time.Second).GenerateDealEmail(context.Background(), entity.EmailDraftRequest{DealName: "a", NewStage: "won"})

	var ge *usecase.GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusBadGateway, ge.Status)
}
