package usecase

import (
	"context"
	"errors"
)

var (
	// ErrInconsistentLedger is returned when the ledger is not balanced.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// CheckConsistency verifies that the ledger is balanced, both overall and
// across the lines posted by revaluation runs.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*LedgerTotals, error) {
	totals, err := uc.ledgerRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	if !totals.Debit.Equal(totals.Credit) {
		return &totals, ErrInconsistentLedger
	}

	if !totals.RevaluationDebit.Equal(totals.RevaluationCredit) {
		return &totals, ErrInconsistentLedger
	}

	return &totals, nil
}
