package usecase

import (
	"github.com/shopspring/decimal"
	"github.com/xavierca1/ligue-crm/internal/entity"
)

// DealInput carries the editable columns of a deal, named like the store
// columns so the UI can post its form as is.
type DealInput struct {
	Name    string            `json:"name_c"`
	Contact entity.ContactRef `json:"contact_id_c"`
	Value   decimal.Decimal   `json:"value_c"`
	Status  entity.DealStatus `json:"status_c"`
}

func (in DealInput) toDeal(id int) *entity.Deal {
	return &entity.Deal{
		ID:      id,
		Name:    in.Name,
		Contact: in.Contact,
		Value:   in.Value,
		Status:  in.Status.OrDefault(),
	}
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeWarning Outcome = "warning"
)

// Workflow steps reported in warnings.
const (
	StepPreRead       = "pre_read"
	StepGenerateEmail = "generate_email"
	StepSaveNotes     = "save_notes"
	StepPublishDraft  = "publish_draft"
)

type UpdateDealOutput struct {
	Deal          *entity.Deal `json:"data"`
	Outcome       Outcome      `json:"level"`
	Warnings      []Warning    `json:"warnings"`
	EmailDrafted  bool         `json:"emailDrafted"`
	StatusChanged bool         `json:"statusChanged"`
	CorrelationID string       `json:"correlationId"`
}

func (o *UpdateDealOutput) warn(step, msg string) {
	o.Warnings = append(o.Warnings, Warning{Step: step, Message: msg})
	o.Outcome = OutcomeWarning
}
