package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
)

// CompanyRepository implements usecase.CompanyRepository.
type CompanyRepository struct {
	db querier
}

// NewCompanyRepository creates a new CompanyRepository.
func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepository {
	return newCompanyRepository(pool)
}

func newCompanyRepository(db querier) *CompanyRepository {
	return &CompanyRepository{db: db}
}

const getCompany = `
SELECT id, name, currency,
       gain_account_id, loss_account_id, journal_id, analytic_account_id,
       reversible_revaluations, reversal_policy, label_template,
       created_at, updated_at
FROM companies
WHERE id = $1`

// GetByID retrieves a company with its revaluation settings.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	var c domain.Company
	var policy string

	err := r.db.QueryRow(ctx, getCompany, id).Scan(
		&c.ID,
		&c.Name,
		&c.Currency,
		&c.GainAccountID,
		&c.LossAccountID,
		&c.JournalID,
		&c.AnalyticAccountID,
		&c.ReversibleRevaluations,
		&policy,
		&c.LabelTemplate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, err
	}

	c.ReversalPolicy = domain.ReversalPolicy(policy)
	return &c, nil
}

const updateCompanySettings = `
UPDATE companies
SET gain_account_id = $2,
    loss_account_id = $3,
    journal_id = $4,
    analytic_account_id = $5,
    reversible_revaluations = $6,
    reversal_policy = $7,
    label_template = $8,
    updated_at = $9
WHERE id = $1`

// UpdateSettings stores the revaluation settings of a company.
func (r *CompanyRepository) UpdateSettings(ctx context.Context, tx usecase.Transaction, id string, settings domain.RevaluationSettings, updatedAt time.Time) error {
	tag, err := conn(r.db, tx).Exec(ctx, updateCompanySettings,
		id,
		settings.GainAccountID,
		settings.LossAccountID,
		settings.JournalID,
		settings.AnalyticAccountID,
		settings.ReversibleRevaluations,
		string(settings.ReversalPolicy),
		settings.LabelTemplate,
		timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCompanyNotFound
	}

	return nil
}
