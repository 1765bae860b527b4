package usecase

import (
	"errors"
	"net/http"
)

const (
	CodeInvalidDealID    = "INVALID_DEAL_ID"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeDealNotFound     = "DEAL_NOT_FOUND"
	CodeStoreError       = "STORE_ERROR"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// GenerationErrorKind classifies why an email draft could not be produced.
type GenerationErrorKind string

const (
	KindMethodNotAllowed  GenerationErrorKind = "method_not_allowed"
	KindValidation        GenerationErrorKind = "validation"
	KindMissingCredential GenerationErrorKind = "missing_credential"
	KindInvalidCredential GenerationErrorKind = "invalid_credential"
	KindRateLimited       GenerationErrorKind = "rate_limited"
	KindUpstream          GenerationErrorKind = "upstream"
	KindEmptyGeneration   GenerationErrorKind = "empty_generation"
)

// GenerationError is returned by email draft generators. Status is the
// HTTP status the generator endpoint answers with.
type GenerationError struct {
	Kind    GenerationErrorKind
	Status  int
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// AsGenerationError extracts a GenerationError. Any other error is reported
// as an unexpected 500.
func AsGenerationError(err error) *GenerationError {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge
	}
	msg := "Unexpected error occurred while generating email."
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &GenerationError{Kind: KindUpstream, Status: http.StatusInternalServerError, Message: msg, Err: err}
}

func NewGenerationError(kind GenerationErrorKind, status int, msg string) *GenerationError {
	return &GenerationError{Kind: kind, Status: status, Message: msg}
}

// Warning is a non-fatal failure of an optional workflow step.
type Warning struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}
