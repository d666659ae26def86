package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/infrastructure/postgres"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and applies the migrations. The test is
// skipped when no database is configured.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	migrationsPath := "internal/infrastructure/postgres/migrations"
	for _, candidate := range []string{
		migrationsPath,
		"../../internal/infrastructure/postgres/migrations",
		"../../../internal/infrastructure/postgres/migrations",
	} {
		if _, err := os.Stat(candidate); err == nil {
			migrationsPath = candidate
			break
		}
	}

	if err := postgres.RunMigrations(dbURL, migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbURL, 10, 1)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db := &TestDB{Pool: pool, t: t}
	db.TruncateAll(ctx)

	return db
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE audit_logs, outbox_events, journal_sequences, move_lines, moves,
			currency_rates, journals, accounts, companies CASCADE;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateCompany inserts a company with the given home currency.
func (db *TestDB) CreateCompany(ctx context.Context, name, currency string, settings domain.RevaluationSettings) *domain.Company {
	db.t.Helper()

	company := &domain.Company{
		ID:                  GenerateID(),
		Name:                name,
		Currency:            currency,
		RevaluationSettings: settings,
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO companies (id, name, currency, gain_account_id, loss_account_id, journal_id,
			analytic_account_id, reversible_revaluations, reversal_policy, label_template)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		company.ID, company.Name, company.Currency,
		settings.GainAccountID, settings.LossAccountID, settings.JournalID,
		settings.AnalyticAccountID, settings.ReversibleRevaluations,
		string(settings.ReversalPolicy), settings.LabelTemplate,
	)
	if err != nil {
		db.t.Fatalf("failed to create company: %v", err)
	}

	return company
}

// UpdateCompanySettings overwrites the revaluation settings of a company.
func (db *TestDB) UpdateCompanySettings(ctx context.Context, company *domain.Company, settings domain.RevaluationSettings) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		UPDATE companies SET gain_account_id = $2, loss_account_id = $3, journal_id = $4,
			reversible_revaluations = $5, reversal_policy = $6
		WHERE id = $1`,
		company.ID, settings.GainAccountID, settings.LossAccountID, settings.JournalID,
		settings.ReversibleRevaluations, string(settings.ReversalPolicy),
	)
	if err != nil {
		db.t.Fatalf("failed to update company settings: %v", err)
	}
	company.RevaluationSettings = settings
}

// CreateAccount inserts an account of the company.
func (db *TestDB) CreateAccount(ctx context.Context, companyID, code, name string, kind domain.AccountKind, currency string, revaluation bool) *domain.Account {
	db.t.Helper()

	account := &domain.Account{
		ID:                  GenerateID(),
		CompanyID:           companyID,
		Code:                code,
		Name:                name,
		Kind:                kind,
		Currency:            currency,
		CurrencyRevaluation: revaluation,
		Reconcilable:        kind == domain.AccountKindReceivable || kind == domain.AccountKindPayable,
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO accounts (id, company_id, code, name, kind, currency, currency_revaluation, reconcilable)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		account.ID, account.CompanyID, account.Code, account.Name, string(account.Kind),
		account.Currency, account.CurrencyRevaluation, account.Reconcilable,
	)
	if err != nil {
		db.t.Fatalf("failed to create account: %v", err)
	}

	return account
}

// CreateJournal inserts a general journal of the company.
func (db *TestDB) CreateJournal(ctx context.Context, companyID, code, name string) *domain.Journal {
	db.t.Helper()

	journal := &domain.Journal{
		ID:        GenerateID(),
		CompanyID: companyID,
		Code:      code,
		Name:      name,
		Kind:      domain.JournalKindGeneral,
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO journals (id, company_id, code, name, kind) VALUES ($1, $2, $3, $4, $5)`,
		journal.ID, journal.CompanyID, journal.Code, journal.Name, string(journal.Kind),
	)
	if err != nil {
		db.t.Fatalf("failed to create journal: %v", err)
	}

	return journal
}

// Book posts a host entry: amount of currency on accountID converted at rate,
// balanced on counterAccountID. A positive amount debits accountID.
func (db *TestDB) Book(ctx context.Context, journal *domain.Journal, accountID, counterAccountID, partnerID, currency string, amount, rate decimal.Decimal, date time.Time) string {
	db.t.Helper()

	home := domain.ToHome(amount, rate)
	debit := decimal.Max(home, decimal.Zero)
	credit := decimal.Max(home.Neg(), decimal.Zero)
	moveID := GenerateID()
	date = domain.TruncateDate(date)

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		db.t.Fatalf("failed to begin: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO moves (id, name, company_id, journal_id, date, kind) VALUES ($1, $2, $3, $4, $5, 'regular')`,
		moveID, "HOST/"+moveID, journal.CompanyID, journal.ID, date,
	); err != nil {
		db.t.Fatalf("failed to create move: %v", err)
	}

	insertLine := `
		INSERT INTO move_lines (id, move_id, company_id, account_id, partner_id, currency,
			amount_currency, debit, credit, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := tx.Exec(ctx, insertLine, GenerateID(), moveID, journal.CompanyID, accountID, partnerID,
		currency, amount.String(), debit.String(), credit.String(), date); err != nil {
		db.t.Fatalf("failed to create line: %v", err)
	}
	if _, err := tx.Exec(ctx, insertLine, GenerateID(), moveID, journal.CompanyID, counterAccountID, "",
		currency, amount.Neg().String(), credit.String(), debit.String(), date); err != nil {
		db.t.Fatalf("failed to create counter line: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		db.t.Fatalf("failed to commit: %v", err)
	}

	return moveID
}

// AccountTotals sums the lines of an account.
type AccountTotals struct {
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Foreign decimal.Decimal
	Lines   int
}

// Balance returns debit minus credit.
func (a AccountTotals) Balance() decimal.Decimal {
	return a.Debit.Sub(a.Credit)
}

// Totals returns the line totals of an account.
func (db *TestDB) Totals(ctx context.Context, accountID string) AccountTotals {
	db.t.Helper()

	var (
		debit, credit, foreign string
		totals                 AccountTotals
	)
	err := db.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(debit), 0)::text, COALESCE(SUM(credit), 0)::text,
			COALESCE(SUM(amount_currency), 0)::text, COUNT(*)
		FROM move_lines WHERE account_id = $1`, accountID,
	).Scan(&debit, &credit, &foreign, &totals.Lines)
	if err != nil {
		db.t.Fatalf("failed to sum lines: %v", err)
	}

	totals.Debit = decimal.RequireFromString(debit)
	totals.Credit = decimal.RequireFromString(credit)
	totals.Foreign = decimal.RequireFromString(foreign)
	return totals
}

// CountMoves counts the moves of a company by kind.
func (db *TestDB) CountMoves(ctx context.Context, companyID string, kind domain.MoveKind) int {
	db.t.Helper()

	var n int
	if err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM moves WHERE company_id = $1 AND kind = $2`, companyID, string(kind),
	).Scan(&n); err != nil {
		db.t.Fatalf("failed to count moves: %v", err)
	}
	return n
}

// Date parses a YYYY-MM-DD date and fails the test on error.
func Date(t *testing.T, value string) time.Time {
	t.Helper()

	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		t.Fatalf("invalid date %q: %v", value, err)
	}
	return d
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
