package usecase

import (
	"context"
	"fmt"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"go.uber.org/zap"
)

// ManageDealsUseCase covers the plain deal reads and writes that need no
// enrichment.
type ManageDealsUseCase struct {
	Repo   entity.DealRepositoryInterface
	Logger *zap.Logger
}

func NewManageDealsUseCase(repo entity.DealRepositoryInterface, logger *zap.Logger) *ManageDealsUseCase {
	return &ManageDealsUseCase{
		Repo:   repo,
		Logger: logger.With(zap.String("component", "manage_deals")),
	}
}

func (uc *ManageDealsUseCase) List(ctx context.Context) ([]entity.Deal, error) {
	deals, err := uc.Repo.FindAll(ctx)
	if err != nil {
		uc.Logger.Error("listing deals failed", zap.Error(err))
		return nil, &TechnicalError{Code: CodeStoreError, Message: err.Error(), Err: err}
	}
	return deals, nil
}

// Get never surfaces store failures: any failed read is reported as not found.
func (uc *ManageDealsUseCase) Get(ctx context.Context, id int) (*entity.Deal, error) {
	if id <= 0 {
		return nil, &DomainError{Code: CodeInvalidDealID, Message: fmt.Sprintf("invalid deal id: %d", id)}
	}

	deal, err := uc.Repo.FindByID(ctx, id)
	if err != nil || deal == nil {
		if err != nil {
			uc.Logger.Warn("deal read failed", zap.Int("deal_id", id), zap.Error(err))
		}
		return nil, &DomainError{Code: CodeDealNotFound, Message: fmt.Sprintf("deal %d not found", id)}
	}
	return deal, nil
}

func (uc *ManageDealsUseCase) Create(ctx context.Context, input DealInput) (*entity.Deal, error) {
	if errs := ValidateDealInput(input, true); len(errs) > 0 {
		return nil, validationFailure(errs)
	}

	created, err := uc.Repo.Create(ctx, input.toDeal(0))
	if err != nil {
		uc.Logger.Error("creating deal failed", zap.Error(err))
		return nil, &TechnicalError{Code: CodeStoreError, Message: err.Error(), Err: err}
	}

	uc.Logger.Info("deal created", zap.Int("deal_id", created.ID))
	return created, nil
}

func (uc *ManageDealsUseCase) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return &DomainError{Code: CodeInvalidDealID, Message: fmt.Sprintf("invalid deal id: %d", id)}
	}

	if err := uc.Repo.Delete(ctx, id); err != nil {
		uc.Logger.Error("deleting deal failed", zap.Int("deal_id", id), zap.Error(err))
		return &TechnicalError{Code: CodeStoreError, Message: err.Error(), Err: err}
	}
	return nil
}
