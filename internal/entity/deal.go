package entity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Deal values travel as JSON numbers, as the record store and the email
// function expect.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// DealStatus is the pipeline stage of a deal.
type DealStatus string

const (
	StatusLead        DealStatus = "lead"
	StatusQualified   DealStatus = "qualified"
	StatusProposition DealStatus = "proposition"
	StatusNegotiation DealStatus = "negotiation"
	StatusWon         DealStatus = "won"
	StatusLost        DealStatus = "lost"
)

// DefaultDealStatus is applied when a write omits the status.
const DefaultDealStatus = StatusLead

var dealStatuses = []DealStatus{
	StatusLead,
	StatusQualified,
	StatusProposition,
	StatusNegotiation,
	StatusWon,
	StatusLost,
}

var (
	ErrInvalidStatus = errors.New("invalid deal status")
	ErrNegativeValue = errors.New("deal value must be >= 0")
	ErrEmptyName     = errors.New("deal name is required")
	ErrDealNotFound  = errors.New("deal not found")
)

// DealStatuses returns the stages in pipeline order.
func DealStatuses() []DealStatus {
	out := make([]DealStatus, len(dealStatuses))
	copy(out, dealStatuses)
	return out
}

func (s DealStatus) IsValid() bool {
	for _, st := range dealStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// OrDefault returns lead for an empty status.
func (s DealStatus) OrDefault() DealStatus {
	if s == "" {
		return DefaultDealStatus
	}
	return s
}

// Deal mirrors a record of the deal table. JSON tags follow the record
// store's column names.
type Deal struct {
	ID         int             `json:"Id"`
	Name       string          `json:"name_c"`
	Contact    ContactRef      `json:"contact_id_c"`
	Value      decimal.Decimal `json:"value_c"`
	Status     DealStatus      `json:"status_c"`
	Notes      string          `json:"notes_c,omitempty"`
	ModifiedOn *time.Time      `json:"ModifiedOn,omitempty"`
}

// Validate checks the stored invariants: known status and non-negative value.
func (d *Deal) Validate() error {
	if !d.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	if d.Value.IsNegative() {
		return ErrNegativeValue
	}
	return nil
}

// StatusChanged reports whether moving from current to next is a stage
// change. An unknown current status (empty) never counts as a change.
func StatusChanged(current, next DealStatus) bool {
	return current != "" && current != next.OrDefault()
}

type DealRepositoryInterface interface {
	FindAll(ctx context.Context) ([]Deal, error)
	FindByID(ctx context.Context, id int) (*Deal, error)
	Create(ctx context.Context, d *Deal) (*Deal, error)
	UpdateFields(ctx context.Context, d *Deal) (*Deal, error)
	UpdateNotes(ctx context.Context, id int, notes string) error
	Delete(ctx context.Context, id int) error
}
