package usecase

import (
	"context"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
)

// EmailDraftGenerator drafts the stage-change email for a deal. It is
// implemented in-process by GenerateDealEmailUseCase and remotely by the
// edge function client.
type EmailDraftGenerator interface {
	GenerateDealEmail(ctx context.Context, req entity.EmailDraftRequest) (*entity.EmailDraftResult, error)
}

// LLMProvider is one text-generation backend. Generate returns the raw
// generated text; failures are *GenerationError.
type LLMProvider interface {
	Name() string
	CredentialKey() string
	Generate(ctx context.Context, apiKey, system, prompt string) (string, error)
}

type SecretStore interface {
	Lookup(ctx context.Context, key string) (string, bool)
}

type DraftPublisher interface {
	PublishDraft(ctx context.Context, payload queue.DraftPayload) error
}
