package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/infrastructure/metrics"
)

// RevaluationUseCase runs currency revaluation for a company.
type RevaluationUseCase struct {
	txManager   TransactionManager
	retrier     Retrier
	companyRepo CompanyRepository
	accountRepo AccountRepository
	journalRepo JournalRepository
	moveRepo    MoveRepository
	lineRepo    LedgerLineRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	rates       RateProvider
	calculator  *RevaluationCalculator
	poster      *JournalPoster
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// RevaluationDeps groups the collaborators of RevaluationUseCase.
type RevaluationDeps struct {
	TxManager   TransactionManager
	Retrier     Retrier
	CompanyRepo CompanyRepository
	AccountRepo AccountRepository
	JournalRepo JournalRepository
	MoveRepo    MoveRepository
	LineRepo    LedgerLineRepository
	OutboxRepo  OutboxRepository
	AuditRepo   AuditRepository
	Rates       RateProvider
	IDGen       IDGenerator
	Metrics     *metrics.Metrics
}

// NewRevaluationUseCase creates a new RevaluationUseCase. Retrier, AuditRepo and Metrics may be nil.
func NewRevaluationUseCase(deps RevaluationDeps) *RevaluationUseCase {
	return &RevaluationUseCase{
		txManager:   deps.TxManager,
		retrier:     deps.Retrier,
		companyRepo: deps.CompanyRepo,
		accountRepo: deps.AccountRepo,
		journalRepo: deps.JournalRepo,
		moveRepo:    deps.MoveRepo,
		lineRepo:    deps.LineRepo,
		outboxRepo:  deps.OutboxRepo,
		auditRepo:   deps.AuditRepo,
		rates:       deps.Rates,
		calculator:  NewRevaluationCalculator(),
		poster:      NewJournalPoster(deps.MoveRepo, deps.IDGen),
		idGen:       deps.IDGen,
		metrics:     deps.Metrics,
	}
}

// RunInput represents input for a revaluation run.
type RunInput struct {
	CompanyID string
	Date      time.Time
	// JournalID overrides the company default revaluation journal.
	JournalID string
	// Label overrides the company label template.
	Label string
}

// RunResult describes the entries created by a run.
type RunResult struct {
	Name      string
	Date      time.Time
	MoveIDs   []string
	LineIDs   []string
	LineCount int
	Gain      decimal.Decimal
	Loss      decimal.Decimal
	Skipped   int
}

// RunDefaults are the values proposed to the user before a run.
type RunDefaults struct {
	Date          time.Time
	JournalID     string
	LabelTemplate string
}

// ReverseInput represents input for reversing a revaluation entry.
type ReverseInput struct {
	MoveID string
	// Date of the reversal; zero uses the company reversal policy.
	Date time.Time
}

// Defaults returns today's date, the company default journal and label template.
func (uc *RevaluationUseCase) Defaults(ctx context.Context, companyID string) (*RunDefaults, error) {
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	return &RunDefaults{
		Date:          domain.TruncateDate(time.Now().UTC()),
		JournalID:     company.JournalID,
		LabelTemplate: company.EffectiveLabelTemplate(),
	}, nil
}

// Run revalues the open foreign-currency balances of the company's flagged accounts as of input.Date.
// Nothing is posted unless every entry of the run is posted.
func (uc *RevaluationUseCase) Run(ctx context.Context, input RunInput) (*RunResult, error) {
	start := time.Now()
	date := domain.TruncateDate(input.Date)
	log := zerolog.Ctx(ctx).With().
		Str("company_id", input.CompanyID).
		Str("date", date.Format(time.DateOnly)).
		Logger()

	company, journal, label, err := uc.prepare(ctx, input)
	if err != nil {
		uc.recordRun(err, start)
		return nil, err
	}

	log.Info().Str("journal_id", journal.ID).Msg("revaluation started")

	var result *RunResult
	err = uc.retry(ctx, func() error {
		var runErr error
		result, runErr = uc.run(ctx, company, journal, date, label)
		return runErr
	})

	uc.recordRun(err, start)

	if err != nil {
		if domain.IsWarning(err) {
			log.Warn().Err(err).Msg("revaluation not posted")
		} else {
			log.Error().Err(err).Msg("revaluation failed")
		}
		return nil, err
	}

	log.Info().
		Int("moves", len(result.MoveIDs)).
		Int("lines", result.LineCount).
		Str("gain", result.Gain.String()).
		Str("loss", result.Loss.String()).
		Int("skipped", result.Skipped).
		Msg("revaluation posted")

	return result, nil
}

func (uc *RevaluationUseCase) prepare(ctx context.Context, input RunInput) (*domain.Company, *domain.Journal, string, error) {
	if input.Date.IsZero() {
		return nil, nil, "", domain.ErrMissingDate
	}

	company, err := uc.companyRepo.GetByID(ctx, input.CompanyID)
	if err != nil {
		return nil, nil, "", err
	}

	journalID := input.JournalID
	if journalID == "" {
		journalID = company.JournalID
	}
	if journalID == "" {
		return nil, nil, "", domain.ErrMissingJournal
	}

	journal, err := uc.journalRepo.GetByID(ctx, journalID)
	if err != nil {
		return nil, nil, "", err
	}
	if journal.CompanyID != company.ID {
		return nil, nil, "", domain.ErrJournalNotFound
	}

	if !company.HasRevaluationAccounts() {
		return nil, nil, "", domain.ErrMissingRevaluationAccounts
	}

	label := input.Label
	if label == "" {
		label = company.EffectiveLabelTemplate()
	}
	if err := domain.ValidateLabelTemplate(label); err != nil {
		return nil, nil, "", err
	}

	return company, journal, label, nil
}

func (uc *RevaluationUseCase) run(ctx context.Context, company *domain.Company, journal *domain.Journal, date time.Time, label string) (*RunResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(txCtx)

	accounts, err := uc.accountRepo.ListRevaluable(txCtx, tx, company.ID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, domain.ErrNoRevaluationAccounts
	}

	accountIDs := make([]string, 0, len(accounts))
	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		accountIDs = append(accountIDs, a.ID)
		accountMap[a.ID] = a
	}

	conflicts, err := uc.lineRepo.CurrencyConflicts(txCtx, tx, company.ID, accountIDs, date)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &domain.CurrencyConflictError{Conflicts: conflicts}
	}

	groups, err := uc.lineRepo.OpenBalances(txCtx, tx, OpenBalanceQuery{
		CompanyID:    company.ID,
		AccountIDs:   accountIDs,
		Date:         date,
		HomeCurrency: company.Currency,
	})
	if err != nil {
		return nil, err
	}

	rates := make(map[string]decimal.Decimal)
	for _, cur := range uc.calculator.RequiredCurrencies(groups, company.Currency, date) {
		rate, err := uc.rates.RateAsOf(txCtx, company.ID, cur, date)
		if err != nil {
			return nil, err
		}
		rates[cur] = rate
	}

	calc, err := uc.calculator.Calculate(CalculationInput{
		Date:         date,
		HomeCurrency: company.Currency,
		Groups:       groups,
		Rates:        rates,
		Accounts:     accountMap,
	})
	if err != nil {
		return nil, err
	}
	if len(calc.Deltas) == 0 {
		return nil, domain.ErrNothingToRevalue
	}

	posted, err := uc.poster.Post(txCtx, tx, PostInput{
		Company:       company,
		Journal:       journal,
		Date:          date,
		LabelTemplate: label,
		Deltas:        calc.Deltas,
		Accounts:      accountMap,
	})
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Name:    RunResultName,
		Date:    date,
		LineIDs: posted.LineIDs(),
		Gain:    decimal.Zero,
		Loss:    decimal.Zero,
		Skipped: calc.Skipped,
	}
	result.LineCount = len(result.LineIDs)
	for _, m := range posted.Moves {
		result.MoveIDs = append(result.MoveIDs, m.ID)
	}
	for _, m := range posted.Reversals {
		result.MoveIDs = append(result.MoveIDs, m.ID)
	}
	for _, d := range calc.Deltas {
		if d.Sign == domain.SignGain {
			result.Gain = result.Gain.Add(d.Amount)
		} else {
			result.Loss = result.Loss.Add(d.Amount)
		}
	}

	now := time.Now().UTC()
	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   result.MoveIDs[0],
		AggregateType: domain.AggregateTypeRevaluation,
		EventType:     domain.EventTypeRevaluationPosted,
		Payload: domain.MarshalState(domain.RevaluationPostedEvent{
			CompanyID: company.ID,
			JournalID: journal.ID,
			Date:      date.Format(time.DateOnly),
			MoveIDs:   result.MoveIDs,
			Gain:      result.Gain.String(),
			Loss:      result.Loss.String(),
		}),
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.audit(txCtx, tx, domain.AuditActionRevaluationRun, company.ID, result, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RevaluationSkipped.Add(float64(calc.Skipped))
		for _, d := range calc.Deltas {
			uc.metrics.RevaluationMoves.WithLabelValues(string(d.Sign)).Inc()
			uc.metrics.RevaluationAmount.WithLabelValues(string(d.Sign)).Observe(d.Amount.InexactFloat64())
		}
	}

	return result, nil
}

// Reverse posts the reversal of a revaluation entry.
func (uc *RevaluationUseCase) Reverse(ctx context.Context, input ReverseInput) (*domain.Move, error) {
	var reversal *domain.Move

	err := uc.retry(ctx, func() error {
		var err error
		reversal, err = uc.reverse(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RevaluationReversals.Inc()
	}

	zerolog.Ctx(ctx).Info().
		Str("move_id", input.MoveID).
		Str("reversal_id", reversal.ID).
		Msg("revaluation entry reversed")

	return reversal, nil
}

func (uc *RevaluationUseCase) reverse(ctx context.Context, input ReverseInput) (*domain.Move, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(txCtx)

	move, err := uc.moveRepo.GetByIDForUpdate(txCtx, tx, input.MoveID)
	if err != nil {
		return nil, err
	}

	company, err := uc.companyRepo.GetByID(txCtx, move.CompanyID)
	if err != nil {
		return nil, err
	}

	journal, err := uc.journalRepo.GetByID(txCtx, move.JournalID)
	if err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = company.EffectiveReversalPolicy().ReversalDate(move.Date)
	}

	reversal, err := uc.poster.Reverse(txCtx, tx, move, company, journal, date)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   move.ID,
		AggregateType: domain.AggregateTypeRevaluation,
		EventType:     domain.EventTypeRevaluationReversed,
		Payload: domain.MarshalState(domain.RevaluationReversedEvent{
			MoveID:         move.ID,
			ReversalMoveID: reversal.ID,
			Date:           reversal.Date.Format(time.DateOnly),
		}),
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.audit(txCtx, tx, domain.AuditActionRevaluationReverse, move.ID, reversal, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return reversal, nil
}

func (uc *RevaluationUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, resourceID string, after any, now time.Time) error {
	if uc.auditRepo == nil {
		return nil
	}

	auditLog := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       domain.ActorID(ctx, SystemActor),
		Action:       string(action),
		ResourceType: domain.AggregateTypeRevaluation,
		ResourceID:   resourceID,
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}
	if err := uc.auditRepo.CreateTx(ctx, tx, auditLog); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.AuditLogsCreated.WithLabelValues(auditLog.Action, auditLog.Status).Inc()
	}

	return nil
}

func (uc *RevaluationUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func (uc *RevaluationUseCase) recordRun(err error, start time.Time) {
	if uc.metrics == nil {
		return
	}

	outcome := "posted"
	switch {
	case err == nil:
	case domain.IsWarning(err):
		outcome = "warning"
	default:
		outcome = "error"
	}

	uc.metrics.RevaluationRuns.WithLabelValues(outcome).Inc()
	uc.metrics.RevaluationDuration.Observe(time.Since(start).Seconds())
}
