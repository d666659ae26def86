package usecase

import (
	"context"
	"time"

	"github.com/iho/fxreval/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
	}
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	CompanyID string
	Limit     int
	Offset    int
}

// ListAccounts lists the accounts of a company with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.ListByCompany(ctx, input.CompanyID, limit, offset)
}

// SetRevaluation flags or unflags an account for currency revaluation.
func (uc *AccountUseCase) SetRevaluation(ctx context.Context, id string, enabled bool) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if account.CurrencyRevaluation == enabled {
		return account, nil
	}

	now := time.Now().UTC()
	if err := uc.accountRepo.SetRevaluation(ctx, id, enabled, now); err != nil {
		return nil, err
	}

	account.CurrencyRevaluation = enabled
	account.UpdatedAt = now

	return account, nil
}
