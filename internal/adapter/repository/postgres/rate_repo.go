package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
)

// RateRepository implements usecase.RateRepository.
type RateRepository struct {
	db querier
}

// NewRateRepository creates a new RateRepository.
func NewRateRepository(pool *pgxpool.Pool) *RateRepository {
	return newRateRepository(pool)
}

func newRateRepository(db querier) *RateRepository {
	return &RateRepository{db: db}
}

const upsertRate = `
INSERT INTO currency_rates (id, currency, company_id, date, rate, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (currency, company_id, date) DO UPDATE SET rate = EXCLUDED.rate
RETURNING id, created_at`

// Upsert stores a rate, replacing the rate of the same currency, scope and date.
// The stored row's ID is written back to rate.
func (r *RateRepository) Upsert(ctx context.Context, tx usecase.Transaction, rate *domain.Rate) error {
	return conn(r.db, tx).QueryRow(ctx, upsertRate,
		rate.ID,
		rate.Currency,
		rate.CompanyID,
		timeToPgDate(rate.Date),
		decimalToNumeric(rate.Rate),
		timeToPgTimestamptz(rate.CreatedAt),
	).Scan(&rate.ID, &rate.CreatedAt)
}

// ListByCurrency retrieves every rate of a currency, newest first.
func (r *RateRepository) ListByCurrency(ctx context.Context, currency string) ([]domain.Rate, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, currency, company_id, date, rate, created_at
FROM currency_rates
WHERE currency = $1
ORDER BY date DESC, company_id DESC`, currency)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []domain.Rate
	for rows.Next() {
		var rate domain.Rate
		var value pgtype.Numeric

		if err := rows.Scan(&rate.ID, &rate.Currency, &rate.CompanyID, &rate.Date, &value, &rate.CreatedAt); err != nil {
			return nil, err
		}

		rate.Rate = numericToDecimal(value)
		rates = append(rates, rate)
	}

	return rates, rows.Err()
}
