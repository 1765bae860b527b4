package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/ligue-crm/internal/entity"
	"go.uber.org/zap"
)

func TestGenerateDealEmail_Success(t *testing.T) {
	provider := new(MockProvider)
	uc := NewGenerateDealEmailUseCase(provider, mapSecrets{"GEMINI_API_KEY": "key-1"}, zap.NewNop())
	value := decimal.RequireFromString("25000")

	provider.On("Generate", mock.Anything, "key-1", systemInstruction, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, `deal at the "negotiation" stage`) &&
			strings.Contains(p, "- Deal Value: $25000") &&
			strings.Contains(p, "- Contact: J. Lee") &&
			strings.Contains(p, "terms, pricing, and implementation")
	})).Return("Subject: Next steps\n\nHi J. Lee,", nil)

	got, err := uc.GenerateDealEmail(context.Background(), entity.EmailDraftRequest{
		DealName:    "Acme",
		NewStage:    "negotiation",
		DealValue:   &value,
		ContactName: "J. Lee",
	})

	require.NoError(t, err)
	assert.Equal(t, &entity.EmailDraftResult{Email: "Subject: Next steps\n\nHi J. Lee,", Stage: "negotiation", DealName: "Acme"}, got)
	provider.AssertExpectations(t)
}

func TestGenerateDealEmail_MissingFields(t *testing.T) {
	provider := new(MockProvider)
	uc := NewGenerateDealEmailUseCase(provider, mapSecrets{"GEMINI_API_KEY": "key-1"}, zap.NewNop())

	_, err := uc.GenerateDealEmail(context.Background(), entity.EmailDraftRequest{DealName: "Acme"})

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindValidation, ge.Kind)
	assert.Equal(t, http.StatusBadRequest, ge.Status)
	assert.Equal(t, "Missing required fields: dealName and newStage are required.", ge.Message)
	provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateDealEmail_MissingCredential(t *testing.T) {
	provider := new(MockProvider)
	uc := NewGenerateDealEmailUseCase(provider, mapSecrets{}, zap.NewNop())

	_, err := uc.GenerateDealEmail(context.Background(), entity.EmailDraftRequest{DealName: "Acme", NewStage: "won"})

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindMissingCredential, ge.Kind)
	assert.Equal(t, http.StatusUnauthorized, ge.Status)
	assert.Equal(t, "Gemini API key not configured. Please add GEMINI_API_KEY secret.", ge.Message)
	provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateDealEmail_CredentialReadPerCall(t *testing.T) {
	provider := new(MockProvider)
	secrets := mapSecrets{}
	uc := NewGenerateDealEmailUseCase(provider, secrets, zap.NewNop())
	req := entity.EmailDraftRequest{DealName: "Acme", NewStage: "won"}

	_, err := uc.GenerateDealEmail(context.Background(), req)
	require.Error(t, err)

	secrets["GEMINI_API_KEY"] = "added-later"
	provider.On("Generate", mock.Anything, "added-later", mock.Anything, mock.Anything).Return("Subject: Congrats", nil)

	got, err := uc.GenerateDealEmail(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Subject: Congrats", got.Email)
}

func TestGenerateDealEmail_EmptyGeneration(t *testing.T) {
	provider := new(MockProvider)
	uc := NewGenerateDealEmailUseCase(provider, mapSecrets{"GEMINI_API_KEY": "k"}, zap.NewNop())
	provider.On("Generate", mock.Anything, "k", mock.Anything, mock.Anything).Return("   ", nil)

	_, err := uc.GenerateDealEmail(context.Background(), entity.EmailDraftRequest{DealName: "Acme", NewStage: "won"})

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindEmptyGeneration, ge.Kind)
	assert.Equal(t, http.StatusInternalServerError, ge.Status)
	assert.Equal(t, "Failed to generate email content from Gemini.", ge.Message)
}

func TestGenerateDealEmail_ProviderErrors(t *testing.T) {
	t.Run("typed error keeps provider status", func(t *testing.T) {
		provider := new(MockProvider)
		uc := NewGenerateDealEmailUseCase(provider, mapSecrets{"GEMINI_API_KEY": "k"}, zap.NewNop())
		provider.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", &GenerationError{Kind: KindUpstream, Status: http.StatusForbidden, Message: "Gemini API error: denied"})

		_, err := uc.GenerateDealEmail(context.Background(), entity.EmailDraftRequest{DealName: "Acme", NewStage: "won"})

		var ge *GenerationError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, http.StatusForbidden, ge.Status)
		assert.Equal(t, "Gemini API error: denied", ge.Message)
	})

	t.Run("transport error is a 500", func(t *testing.T) {
		provider := new(MockProvider)
		uc := NewGenerateDealEmailUseCase(provider, mapSecrets{"GEMINI_API_KEY": "k"}, zap.NewNop())
		provider.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("gemini request failed: connection refused"))

		_, err := uc.GenerateDealEmail(context.Background(), entity.EmailDraftRequest{DealName: "Acme", NewStage: "won"})

		var ge *GenerationError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, http.StatusInternalServerError, ge.Status)
		assert.Equal(t, "gemini request failed: connection refused", ge.Message)
	})
}

func TestBuildPrompt(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p := buildPrompt(entity.EmailDraftRequest{DealName: "Acme", NewStage: "onboarding"})

		assert.True(t, strings.HasPrefix(p, `Generate a professional email template for a sales representative to send regarding a deal at the "onboarding" stage.`))
		assert.Contains(t, p, "- Deal Name: Acme\n- Current Stage: onboarding\n")
		assert.Contains(t, p, "- Deal Value: Not specified")
		assert.Contains(t, p, "- Contact: Valued customer")
		assert.Contains(t, p, "Context: This email is for general communication regarding the deal.")
		assert.True(t, strings.HasSuffix(p, "Best regards,\n[Your Name]"))
	})

	t.Run("zero value is not specified", func(t *testing.T) {
		zero := decimal.Zero
		p := buildPrompt(entity.EmailDraftRequest{DealName: "Acme", NewStage: "lead", DealValue: &zero})
		assert.Contains(t, p, "- Deal Value: Not specified")
	})

	t.Run("fractional value", func(t *testing.T) {
		v := decimal.RequireFromString("1500.50")
		p := buildPrompt(entity.EmailDraftRequest{DealName: "Acme", NewStage: "lead", DealValue: &v})
		assert.Contains(t, p, "- Deal Value: $1500.5")
	})
}
