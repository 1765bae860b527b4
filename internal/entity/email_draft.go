package entity

import "github.com/shopspring/decimal"

// FallbackContactName is sent to the generator when the deal's contact
// carries no display name.
const FallbackContactName = "Valued Customer"

// EmailDraftRequest is the deal context handed to the email generator.
type EmailDraftRequest struct {
	DealName    string           `json:"dealName"`
	NewStage    string           `json:"newStage"`
	DealValue   *decimal.Decimal `json:"dealValue,omitempty"`
	ContactName string           `json:"contactName,omitempty"`
}

// EmailDraftResult holds a generated subject + body as plain text.
type EmailDraftResult struct {
	Email    string `json:"email"`
	Stage    string `json:"stage"`
	DealName string `json:"dealName"`
}

var stageContexts = map[DealStatus]string{
	StatusLead:        "initial outreach to introduce our company and explore potential interest",
	StatusQualified:   "follow-up after qualifying the lead to discuss their specific needs",
	StatusProposition: "formal proposal presentation outlining our solution and value",
	StatusNegotiation: "negotiation phase addressing terms, pricing, and implementation",
	StatusWon:         "celebration and onboarding next steps after closing the deal",
	StatusLost:        "professional closure maintaining relationship for future opportunities",
}

// GenericStageContext describes stages outside the known pipeline.
const GenericStageContext = "general communication regarding the deal"

// StageContext returns the short description injected into the email prompt.
func StageContext(stage string) string {
	if c, ok := stageContexts[DealStatus(stage)]; ok {
		return c
	}
	return GenericStageContext
}
