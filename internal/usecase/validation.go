package usecase

import (
	"fmt"
	"strings"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateDealInput checks the stored invariants of a deal write. A missing
// status is allowed and later defaults to lead.
func ValidateDealInput(input DealInput, requireName bool) []ValidationError {
	var errs []ValidationError

	if requireName && strings.TrimSpace(input.Name) == "" {
		errs = append(errs, ValidationError{"name_c", "is required"})
	}

	if input.Status != "" && !input.Status.IsValid() {
		errs = append(errs, ValidationError{"status_c", fmt.Sprintf("must be one of %s", joinStatuses())})
	}

	if input.Value.IsNegative() {
		errs = append(errs, ValidationError{"value_c", "must be greater than or equal to 0"})
	}

	if input.Contact.ID < 0 {
		errs = append(errs, ValidationError{"contact_id_c", "must be a positive id"})
	}

	return errs
}

func validationFailure(errs []ValidationError) *DomainError {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return &DomainError{Code: CodeValidationFailed, Message: "invalid deal: " + strings.Join(msgs, "; ")}
}

func joinStatuses() string {
	statuses := entity.DealStatuses()
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
