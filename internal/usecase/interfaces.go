package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/domain"
)

// CompanyRepository defines data access for companies and their revaluation settings.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	UpdateSettings(ctx context.Context, tx Transaction, id string, settings domain.RevaluationSettings, updatedAt time.Time) error
}

// AccountRepository defines data access for the chart of accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Account, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.Account, error)
	// ListRevaluable returns the accounts of the company flagged for currency revaluation.
	ListRevaluable(ctx context.Context, tx Transaction, companyID string) ([]*domain.Account, error)
	SetRevaluation(ctx context.Context, id string, enabled bool, updatedAt time.Time) error
}

// JournalRepository defines data access for journals.
type JournalRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Journal, error)
}

// RateRepository defines data access for exchange rates.
type RateRepository interface {
	Upsert(ctx context.Context, tx Transaction, rate *domain.Rate) error
	// ListByCurrency returns every rate of the currency, shared and company scoped.
	ListByCurrency(ctx context.Context, currency string) ([]domain.Rate, error)
}

// MoveRepository defines data access for journal entries.
type MoveRepository interface {
	Create(ctx context.Context, tx Transaction, move *domain.Move) error
	GetByID(ctx context.Context, id string) (*domain.Move, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Move, error)
	SetReversedBy(ctx context.Context, tx Transaction, id, reversedByID string) error
	// NextSequence returns the next entry number of the journal for the year.
	NextSequence(ctx context.Context, tx Transaction, journalID string, year int) (int, error)
}

// OpenBalanceQuery selects the open foreign-currency lines aggregated by a revaluation run.
type OpenBalanceQuery struct {
	CompanyID    string
	AccountIDs   []string
	Date         time.Time
	HomeCurrency string
}

// LedgerLineRepository defines read access to ledger lines for revaluation.
type LedgerLineRepository interface {
	OpenBalances(ctx context.Context, tx Transaction, q OpenBalanceQuery) ([]domain.GroupBalance, error)
	CurrencyConflicts(ctx context.Context, tx Transaction, companyID string, accountIDs []string, date time.Time) ([]domain.CurrencyConflict, error)
}

// LedgerTotals are the debit and credit sums of the whole ledger and of revaluation lines.
type LedgerTotals struct {
	Debit             decimal.Decimal
	Credit            decimal.Decimal
	RevaluationDebit  decimal.Decimal
	RevaluationCredit decimal.Decimal
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	Totals(ctx context.Context) (LedgerTotals, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// RateProvider resolves the rate of a currency as of a date.
type RateProvider interface {
	RateAsOf(ctx context.Context, companyID, currency string, date time.Time) (decimal.Decimal, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient database errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request failed so that it can be retried.
	Release(ctx context.Context, key string) error
}
