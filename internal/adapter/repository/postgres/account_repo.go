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

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepository(pool)
}

func newAccountRepository(db querier) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, company_id, code, name, kind, currency, currency_revaluation, reconcilable, created_at, updated_at`

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	return account, nil
}

// GetByIDs retrieves the accounts with the given IDs, ordered by code.
func (r *AccountRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1) ORDER BY code, id`, ids)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// ListByCompany retrieves a page of the company's chart of accounts.
func (r *AccountRepository) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE company_id = $1 ORDER BY code, id LIMIT $2 OFFSET $3`,
		companyID, limit, offset,
	)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// ListRevaluable retrieves the accounts flagged for currency revaluation.
func (r *AccountRepository) ListRevaluable(ctx context.Context, tx usecase.Transaction, companyID string) ([]*domain.Account, error) {
	rows, err := conn(r.db, tx).Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE company_id = $1 AND currency_revaluation ORDER BY code, id`,
		companyID,
	)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// SetRevaluation flags or unflags an account for currency revaluation.
func (r *AccountRepository) SetRevaluation(ctx context.Context, id string, enabled bool, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET currency_revaluation = $2, updated_at = $3 WHERE id = $1`,
		id, enabled, timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var kind string

	err := row.Scan(
		&a.ID,
		&a.CompanyID,
		&a.Code,
		&a.Name,
		&kind,
		&a.Currency,
		&a.CurrencyRevaluation,
		&a.Reconcilable,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Kind = domain.AccountKind(kind)
	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}
