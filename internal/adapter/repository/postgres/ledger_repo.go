package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fxreval/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db querier
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepository(pool)
}

func newLedgerRepository(db querier) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const ledgerTotals = `
SELECT COALESCE(SUM(debit), 0),
       COALESCE(SUM(credit), 0),
       COALESCE(SUM(debit) FILTER (WHERE revaluation), 0),
       COALESCE(SUM(credit) FILTER (WHERE revaluation), 0)
FROM move_lines`

// Totals sums debits and credits over the whole ledger and over revaluation lines.
func (r *LedgerRepository) Totals(ctx context.Context) (usecase.LedgerTotals, error) {
	var debit, credit, revDebit, revCredit pgtype.Numeric

	if err := r.db.QueryRow(ctx, ledgerTotals).Scan(&debit, &credit, &revDebit, &revCredit); err != nil {
		return usecase.LedgerTotals{}, err
	}

	return usecase.LedgerTotals{
		Debit:             numericToDecimal(debit),
		Credit:            numericToDecimal(credit),
		RevaluationDebit:  numericToDecimal(revDebit),
		RevaluationCredit: numericToDecimal(revCredit),
	}, nil
}
