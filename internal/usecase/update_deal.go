package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
	"go.uber.org/zap"
)

// UpdateDealUseCase writes a deal and, when its stage moved, drafts a
// follow-up email into the deal notes.
type UpdateDealUseCase struct {
	Repo      entity.DealRepositoryInterface
	Generator EmailDraftGenerator
	Publisher DraftPublisher // optional
	Logger    *zap.Logger
}

func NewUpdateDealUseCase(
	repo entity.DealRepositoryInterface,
	generator EmailDraftGenerator,
	publisher DraftPublisher,
	logger *zap.Logger,
) *UpdateDealUseCase {
	return &UpdateDealUseCase{
		Repo:      repo,
		Generator: generator,
		Publisher: publisher,
		Logger:    logger.With(zap.String("component", "update_deal")),
	}
}

// Execute fails only on invalid input or when the primary write fails.
// Later steps degrade the outcome to a warning.
func (uc *UpdateDealUseCase) Execute(ctx context.Context, id int, input DealInput) (*UpdateDealOutput, error) {
	if id <= 0 {
		return nil, &DomainError{Code: CodeInvalidDealID, Message: fmt.Sprintf("invalid deal id: %d", id)}
	}

	if errs := ValidateDealInput(input, false); len(errs) > 0 {
		return nil, validationFailure(errs)
	}
	next := input.toDeal(id)

	out := &UpdateDealOutput{
		Outcome:       OutcomeSuccess,
		Warnings:      []Warning{},
		CorrelationID: uuid.New().String(),
	}
	log := uc.Logger.With(zap.Int("deal_id", id), zap.String("correlation_id", out.CorrelationID))

	current, err := uc.Repo.FindByID(ctx, id)
	if err != nil {
		log.Warn("could not read current deal, skipping stage change detection",
			zap.String("step", StepPreRead),
			zap.Error(err),
		)
		current = nil
	}

	if current != nil {
		out.StatusChanged = entity.StatusChanged(current.Status, next.Status)
	}

	updated, err := uc.Repo.UpdateFields(ctx, next)
	if err != nil {
		log.Error("deal update failed", zap.Error(err))
		return nil, &TechnicalError{Code: CodeStoreError, Message: err.Error(), Err: err}
	}
	if updated == nil {
		updated = next
	}
	out.Deal = updated

	if !out.StatusChanged {
		return out, nil
	}

	log.Info("deal stage changed",
		zap.String("from", string(current.Status)),
		zap.String("to", string(next.Status)),
	)

	req := entity.EmailDraftRequest{
		DealName:    next.Name,
		NewStage:    string(next.Status),
		DealValue:   &next.Value,
		ContactName: contactName(input.Contact, current),
	}

	draft, err := uc.Generator.GenerateDealEmail(ctx, req)
	if err != nil {
		log.Warn("email draft failed", zap.String("step", StepGenerateEmail), zap.Error(err))
		out.warn(StepGenerateEmail, "Deal updated, but the follow-up email could not be generated: "+err.Error())
		return out, nil
	}
	if draft == nil || strings.TrimSpace(draft.Email) == "" {
		log.Warn("email draft was empty", zap.String("step", StepGenerateEmail))
		out.warn(StepGenerateEmail, "Deal updated, but the generated email was empty.")
		return out, nil
	}

	if err := uc.Repo.UpdateNotes(ctx, id, draft.Email); err != nil {
		log.Warn("saving email draft failed", zap.String("step", StepSaveNotes), zap.Error(err))
		out.warn(StepSaveNotes, "Deal updated, but the generated email could not be saved to notes: "+err.Error())
		return out, nil
	}

	withNotes := *updated
	withNotes.Notes = draft.Email
	out.Deal = &withNotes
	out.EmailDrafted = true

	uc.publish(ctx, log, out, req)

	return out, nil
}

func (uc *UpdateDealUseCase) publish(ctx context.Context, log *zap.Logger, out *UpdateDealOutput, req entity.EmailDraftRequest) {
	if uc.Publisher == nil {
		return
	}

	payload := queue.DraftPayload{
		CorrelationID: out.CorrelationID,
		DealID:        out.Deal.ID,
		DealName:      req.DealName,
		Stage:         req.NewStage,
		ContactName:   req.ContactName,
		Email:         out.Deal.Notes,
		OccurredAt:    time.Now().UTC(),
	}

	if err := uc.Publisher.PublishDraft(ctx, payload); err != nil {
		log.Warn("draft saved, but publishing the event failed", zap.String("step", StepPublishDraft), zap.Error(err))
		out.warn(StepPublishDraft, "Email draft saved, but the sales team could not be notified.")
	}
}

// contactName prefers the submitted reference, then the stored one.
func contactName(submitted entity.ContactRef, current *entity.Deal) string {
	if name := strings.TrimSpace(submitted.Name); name != "" {
		return name
	}
	if current != nil && current.Contact.ID == submitted.ID {
		if name := strings.TrimSpace(current.Contact.Name); name != "" {
			return name
		}
	}
	return entity.FallbackContactName
}

// IsNotFound reports whether err means the deal does not exist.
func IsNotFound(err error) bool {
	var de *DomainError
	return errors.Is(err, entity.ErrDealNotFound) || (errors.As(err, &de) && de.Code == CodeDealNotFound)
}
