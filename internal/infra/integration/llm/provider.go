package llm

import (
	"fmt"

	"github.com/xavierca1/ligue-crm/internal/config"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/gemini"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/openai"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

// NewProvider returns the adapter named by LLM_PROVIDER.
func NewProvider(cfg config.LLMConfig) (usecase.LLMProvider, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.NewClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.Timeout), nil
	case "openai":
		return openai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
