package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"go.uber.org/zap"
)

// GenerateDealEmailUseCase drafts a stage-change email with one LLM call.
// The provider credential is looked up on every call so rotated secrets
// apply without a restart.
type GenerateDealEmailUseCase struct {
	Provider LLMProvider
	Secrets  SecretStore
	Logger   *zap.Logger
}

func NewGenerateDealEmailUseCase(provider LLMProvider, secrets SecretStore, logger *zap.Logger) *GenerateDealEmailUseCase {
	return &GenerateDealEmailUseCase{
		Provider: provider,
		Secrets:  secrets,
		Logger:   logger.With(zap.String("component", "generate_deal_email"), zap.String("provider", provider.Name())),
	}
}

// NormalizeDraftRequest trims the required fields and rejects the request
// when either is blank.
func NormalizeDraftRequest(req entity.EmailDraftRequest) (entity.EmailDraftRequest, error) {
	req.DealName = strings.TrimSpace(req.DealName)
	req.NewStage = strings.TrimSpace(req.NewStage)
	if req.DealName == "" || req.NewStage == "" {
		return req, NewGenerationError(KindValidation, http.StatusBadRequest,
			"Missing required fields: dealName and newStage are required.")
	}
	return req, nil
}

func (uc *GenerateDealEmailUseCase) GenerateDealEmail(ctx context.Context, req entity.EmailDraftRequest) (*entity.EmailDraftResult, error) {
	req, err := NormalizeDraftRequest(req)
	if err != nil {
		return nil, err
	}

	key := uc.Provider.CredentialKey()
	apiKey, ok := uc.Secrets.Lookup(ctx, key)
	if !ok || strings.TrimSpace(apiKey) == "" {
		uc.Logger.Error("llm credential missing", zap.String("secret", key))
		return nil, NewGenerationError(KindMissingCredential, http.StatusUnauthorized,
			fmt.Sprintf("%s API key not configured. Please add %s secret.", uc.Provider.Name(), key))
	}

	text, err := uc.Provider.Generate(ctx, apiKey, systemInstruction, buildPrompt(req))
	if err != nil {
		ge := AsGenerationError(err)
		uc.Logger.Warn("llm call failed",
			zap.String("deal", req.DealName),
			zap.String("stage", req.NewStage),
			zap.String("kind", string(ge.Kind)),
			zap.Int("status", ge.Status),
			zap.Error(err),
		)
		return nil, ge
	}

	if strings.TrimSpace(text) == "" {
		return nil, NewGenerationError(KindEmptyGeneration, http.StatusInternalServerError,
			fmt.Sprintf("Failed to generate email content from %s.", uc.Provider.Name()))
	}

	uc.Logger.Info("email drafted", zap.String("deal", req.DealName), zap.String("stage", req.NewStage))

	return &entity.EmailDraftResult{
		Email:    text,
		Stage:    req.NewStage,
		DealName: req.DealName,
	}, nil
}
