package usecase

import (
	"context"
	"time"

	"github.com/iho/fxreval/internal/domain"
)

// SettingsUseCase manages the revaluation settings of a company.
type SettingsUseCase struct {
	txManager   TransactionManager
	companyRepo CompanyRepository
	accountRepo AccountRepository
	journalRepo JournalRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
}

// NewSettingsUseCase creates a new SettingsUseCase.
func NewSettingsUseCase(
	txManager TransactionManager,
	companyRepo CompanyRepository,
	accountRepo AccountRepository,
	journalRepo JournalRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
) *SettingsUseCase {
	return &SettingsUseCase{
		txManager:   txManager,
		companyRepo: companyRepo,
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
	}
}

// UpdateSettingsInput carries the new settings. Empty optional ids clear the setting.
type UpdateSettingsInput struct {
	CompanyID              string
	GainAccountID          string
	LossAccountID          string
	JournalID              string
	AnalyticAccountID      string
	ReversibleRevaluations bool
	ReversalPolicy         domain.ReversalPolicy
	LabelTemplate          string
}

// Get returns the company with its revaluation settings.
func (uc *SettingsUseCase) Get(ctx context.Context, companyID string) (*domain.Company, error) {
	return uc.companyRepo.GetByID(ctx, companyID)
}

// Update validates and stores new revaluation settings.
func (uc *SettingsUseCase) Update(ctx context.Context, input UpdateSettingsInput) (*domain.Company, error) {
	company, err := uc.companyRepo.GetByID(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}

	settings := domain.RevaluationSettings{
		GainAccountID:          input.GainAccountID,
		LossAccountID:          input.LossAccountID,
		JournalID:              input.JournalID,
		AnalyticAccountID:      input.AnalyticAccountID,
		ReversibleRevaluations: input.ReversibleRevaluations,
		ReversalPolicy:         input.ReversalPolicy,
		LabelTemplate:          input.LabelTemplate,
	}

	if err := uc.validate(ctx, company, settings); err != nil {
		return nil, err
	}

	before := domain.MarshalState(company.RevaluationSettings)
	now := time.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.companyRepo.UpdateSettings(ctx, tx, company.ID, settings, now); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   company.ID,
		AggregateType: domain.AggregateTypeCompany,
		EventType:     domain.EventTypeSettingsUpdated,
		Payload:       domain.MarshalState(settings),
		CreatedAt:     now,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		auditLog := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       domain.ActorID(ctx, SystemActor),
			Action:       string(domain.AuditActionSettingsUpdate),
			ResourceType: domain.AggregateTypeCompany,
			ResourceID:   company.ID,
			BeforeState:  before,
			AfterState:   domain.MarshalState(settings),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    now,
		}
		if err := uc.auditRepo.CreateTx(ctx, tx, auditLog); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	company.RevaluationSettings = settings
	company.UpdatedAt = now

	return company, nil
}

func (uc *SettingsUseCase) validate(ctx context.Context, company *domain.Company, s domain.RevaluationSettings) error {
	if s.ReversalPolicy != "" && !s.ReversalPolicy.IsValid() {
		return domain.ErrInvalidReversalPolicy
	}

	if s.LabelTemplate != "" {
		if err := domain.ValidateLabelTemplate(s.LabelTemplate); err != nil {
			return err
		}
	}

	for _, id := range []string{s.GainAccountID, s.LossAccountID, s.AnalyticAccountID} {
		if id == "" {
			continue
		}
		account, err := uc.accountRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if account.CompanyID != company.ID {
			return domain.ErrForeignAccount
		}
	}

	if s.JournalID != "" {
		journal, err := uc.journalRepo.GetByID(ctx, s.JournalID)
		if err != nil {
			return err
		}
		if journal.CompanyID != company.ID {
			return domain.ErrJournalNotFound
		}
	}

	return nil
}
