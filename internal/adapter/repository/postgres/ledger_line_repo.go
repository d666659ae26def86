package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
)

// LedgerLineRepository implements usecase.LedgerLineRepository.
type LedgerLineRepository struct {
	db querier
}

// NewLedgerLineRepository creates a new LedgerLineRepository.
func NewLedgerLineRepository(pool *pgxpool.Pool) *LedgerLineRepository {
	return newLedgerLineRepository(pool)
}

func newLedgerLineRepository(db querier) *LedgerLineRepository {
	return &LedgerLineRepository{db: db}
}

// The last revaluation of a group is looked up over all dates so that
// a run before an existing revaluation can be detected. Its rate is the one
// the group was marked to on that date.
const openBalances = `
WITH last_revaluation AS (
    SELECT DISTINCT ON (l.account_id, l.currency, l.partner_id)
           l.account_id, l.currency, l.partner_id,
           l.date AS last_date, l.revaluation_rate AS last_rate
    FROM move_lines l
    JOIN moves m ON m.id = l.move_id
    WHERE l.company_id = $1
      AND l.account_id = ANY($2)
      AND l.revaluation
      AND m.kind = 'revaluation'
    ORDER BY l.account_id, l.currency, l.partner_id, l.date DESC, l.created_at DESC, l.id DESC
)
SELECT l.account_id, l.currency, l.partner_id,
       SUM(l.amount_currency) AS foreign_balance,
       SUM(l.debit - l.credit) AS booked_balance,
       lr.last_date,
       COALESCE(lr.last_rate, 0) AS last_rate
FROM move_lines l
LEFT JOIN last_revaluation lr
       ON lr.account_id = l.account_id
      AND lr.currency = l.currency
      AND lr.partner_id = l.partner_id
WHERE l.company_id = $1
  AND l.account_id = ANY($2)
  AND l.date <= $3
  AND l.currency <> ''
  AND l.currency <> $4
  AND (l.reconciled_at IS NULL OR l.reconciled_at > $3)
GROUP BY l.account_id, l.currency, l.partner_id, lr.last_date, lr.last_rate
ORDER BY l.account_id, l.currency, l.partner_id`

// OpenBalances aggregates the open foreign-currency lines of the accounts as of the query date.
func (r *LedgerLineRepository) OpenBalances(ctx context.Context, tx usecase.Transaction, q usecase.OpenBalanceQuery) ([]domain.GroupBalance, error) {
	rows, err := conn(r.db, tx).Query(ctx, openBalances,
		q.CompanyID,
		q.AccountIDs,
		timeToPgDate(domain.TruncateDate(q.Date)),
		q.HomeCurrency,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.GroupBalance
	for rows.Next() {
		var g domain.GroupBalance
		var foreign, booked, lastRate pgtype.Numeric
		var last pgtype.Date

		if err := rows.Scan(&g.AccountID, &g.Currency, &g.PartnerID, &foreign, &booked, &last, &lastRate); err != nil {
			return nil, err
		}

		g.ForeignBalance = numericToDecimal(foreign)
		g.BookedBalance = numericToDecimal(booked)
		g.LastRevaluation = pgDateToTime(last)
		g.LastRevaluationRate = numericToDecimal(lastRate)
		groups = append(groups, g)
	}

	return groups, rows.Err()
}

const currencyConflicts = `
SELECT a.id, a.code, a.currency,
       CASE WHEN l.currency = '' THEN c.currency ELSE l.currency END AS line_currency,
       COUNT(*)
FROM move_lines l
JOIN accounts a ON a.id = l.account_id
JOIN companies c ON c.id = a.company_id
WHERE a.company_id = $1
  AND a.id = ANY($2)
  AND a.currency <> ''
  AND NOT l.revaluation
  AND l.date <= $3
  AND (l.reconciled_at IS NULL OR l.reconciled_at > $3)
  AND (CASE WHEN l.currency = '' THEN c.currency ELSE l.currency END) <> a.currency
GROUP BY a.id, a.code, a.currency, line_currency
ORDER BY a.code, line_currency`

// CurrencyConflicts lists open lines booked in a currency their fixed-currency account does not accept.
func (r *LedgerLineRepository) CurrencyConflicts(ctx context.Context, tx usecase.Transaction, companyID string, accountIDs []string, date time.Time) ([]domain.CurrencyConflict, error) {
	rows, err := conn(r.db, tx).Query(ctx, currencyConflicts,
		companyID,
		accountIDs,
		timeToPgDate(domain.TruncateDate(date)),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []domain.CurrencyConflict
	for rows.Next() {
		var c domain.CurrencyConflict
		if err := rows.Scan(&c.AccountID, &c.AccountCode, &c.AccountCurrency, &c.LineCurrency, &c.Lines); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}

	return conflicts, rows.Err()
}
