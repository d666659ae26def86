package integration

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/adapter/repository/postgres"
	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
	"github.com/iho/fxreval/tests/testutil"
)

// stack wires the use cases on top of the Postgres repositories.
type stack struct {
	db          *testutil.TestDB
	outboxRepo  usecase.OutboxRepository
	auditRepo   *postgres.AuditRepository
	moveRepo    *postgres.MoveRepository
	rates       *usecase.RateUseCase
	revaluation *usecase.RevaluationUseCase
	reports     *usecase.ReportUseCase
	settings    *usecase.SettingsUseCase
	accounts    *usecase.AccountUseCase
	ledger      *usecase.LedgerUseCase
}

func newStack(t *testing.T, outbox usecase.OutboxRepository) *stack {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := testutil.NewTestDB(t)
	t.Cleanup(db.Cleanup)

	pool := db.Pool
	if outbox == nil {
		outbox = postgres.NewOutboxRepository(pool)
	}

	txManager := postgres.NewTxManager(pool, postgres.WithIsoLevel(pgx.Serializable))
	idGen := postgres.NewULIDGenerator()
	companyRepo := postgres.NewCompanyRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	journalRepo := postgres.NewJournalRepository(pool)
	lineRepo := postgres.NewLedgerLineRepository(pool)
	moveRepo := postgres.NewMoveRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)

	rates := usecase.NewRateUseCase(txManager, companyRepo, postgres.NewRateRepository(pool), outbox, auditRepo, nil, idGen, 0, nil)

	return &stack{
		db:         db,
		outboxRepo: outbox,
		auditRepo:  auditRepo,
		moveRepo:   moveRepo,
		rates:      rates,
		revaluation: usecase.NewRevaluationUseCase(usecase.RevaluationDeps{
			TxManager:   txManager,
			Retrier:     postgres.NewRetrier(zerolog.Nop()),
			CompanyRepo: companyRepo,
			AccountRepo: accountRepo,
			JournalRepo: journalRepo,
			MoveRepo:    moveRepo,
			LineRepo:    lineRepo,
			OutboxRepo:  outbox,
			AuditRepo:   auditRepo,
			Rates:       rates,
			IDGen:       idGen,
		}),
		reports:  usecase.NewReportUseCase(txManager, companyRepo, accountRepo, lineRepo, rates),
		settings: usecase.NewSettingsUseCase(txManager, companyRepo, accountRepo, journalRepo, outbox, auditRepo, idGen),
		accounts: usecase.NewAccountUseCase(accountRepo),
		ledger:   usecase.NewLedgerUseCase(postgres.NewLedgerRepository(pool)),
	}
}

func (s *stack) setRate(t *testing.T, currency, day, rate string) {
	t.Helper()

	_, err := s.rates.SetRate(context.Background(), usecase.SetRateInput{
		Currency: currency,
		Date:     testutil.Date(t, day),
		Rate:     decimal.RequireFromString(rate),
	})
	if err != nil {
		t.Fatalf("failed to set rate %s %s: %v", currency, day, err)
	}
}

// company is a seeded company with its revaluation accounts and journals.
type company struct {
	*domain.Company
	general *domain.Journal
	reval   *domain.Journal
	gain    *domain.Account
	loss    *domain.Account
	// counter is a home-currency account used to balance host entries.
	counter *domain.Account
}

func (s *stack) seedCompany(t *testing.T, home string, reversible bool) *company {
	t.Helper()

	ctx := context.Background()
	c := s.db.CreateCompany(ctx, "Revaluation Co", home, domain.RevaluationSettings{})

	seeded := &company{
		Company: c,
		general: s.db.CreateJournal(ctx, c.ID, "MISC", "Miscellaneous"),
		reval:   s.db.CreateJournal(ctx, c.ID, "REV", "Revaluation"),
		gain:    s.db.CreateAccount(ctx, c.ID, "766", "Foreign exchange gain", domain.AccountKindOther, "", false),
		loss:    s.db.CreateAccount(ctx, c.ID, "666", "Foreign exchange loss", domain.AccountKindOther, "", false),
		counter: s.db.CreateAccount(ctx, c.ID, "700", "Revenue", domain.AccountKindOther, "", false),
	}

	s.db.UpdateCompanySettings(ctx, c, domain.RevaluationSettings{
		GainAccountID:          seeded.gain.ID,
		LossAccountID:          seeded.loss.ID,
		JournalID:              seeded.reval.ID,
		ReversibleRevaluations: reversible,
		ReversalPolicy:         domain.ReversalNextPeriod,
	})

	return seeded
}

func (s *stack) run(t *testing.T, c *company, day string) (*usecase.RunResult, error) {
	t.Helper()
	return s.revaluation.Run(context.Background(), usecase.RunInput{CompanyID: c.ID, Date: testutil.Date(t, day)})
}

func (s *stack) assertConsistent(t *testing.T) {
	t.Helper()

	totals, err := s.ledger.CheckConsistency(context.Background())
	if err != nil {
		t.Fatalf("ledger inconsistent: %v (%+v)", err, totals)
	}
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
