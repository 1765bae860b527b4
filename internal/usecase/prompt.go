package usecase

import (
	"fmt"
	"strings"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

const systemInstruction = "You are a professional sales email writer. Generate clear, effective, and personalized sales emails based on deal stage and context."

const promptTemplate = `Generate a professional email template for a sales representative to send regarding a deal at the "%[2]s" stage.

Deal Details:
- Deal Name: %[1]s
- Current Stage: %[2]s
- Deal Value: %[3]s
- Contact: %[4]s

Context: This email is for %[5]s.

Requirements:
1. Professional and personalized tone
2. Clear subject line
3. Appropriate for the deal stage
4. Action-oriented with clear next steps
5. Include placeholder for signature
6. Keep concise (200-300 words)

Format the response with:
Subject: [subject line]

[Email body]

Best regards,
[Your Name]`

func buildPrompt(req entity.EmailDraftRequest) string {
	value := "Not specified"
	if req.DealValue != nil && !req.DealValue.IsZero() {
		value = "$" + req.DealValue.String()
	}

	contact := strings.TrimSpace(req.ContactName)
	if contact == "" {
		contact = "Valued customer"
	}

	return fmt.Sprintf(promptTemplate,
		req.DealName,
		req.NewStage,
		value,
		contact,
		entity.StageContext(req.NewStage),
	)
}
