package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/domain"
)

// JournalPoster turns revaluation deltas into balanced journal entries.
type JournalPoster struct {
	moveRepo MoveRepository
	idGen    IDGenerator
}

// NewJournalPoster creates a new JournalPoster.
func NewJournalPoster(moveRepo MoveRepository, idGen IDGenerator) *JournalPoster {
	return &JournalPoster{
		moveRepo: moveRepo,
		idGen:    idGen,
	}
}

// PostInput represents the entries to post for one run.
type PostInput struct {
	Company       *domain.Company
	Journal       *domain.Journal
	Date          time.Time
	LabelTemplate string
	Deltas        []domain.Delta
	// Accounts resolves account codes and names for labels.
	Accounts map[string]*domain.Account
}

// PostResult lists the entries created by Post.
type PostResult struct {
	Moves     []*domain.Move
	Reversals []*domain.Move
}

// LineIDs returns the ids of every line posted, reversals included.
func (r *PostResult) LineIDs() []string {
	var ids []string
	for _, group := range [][]*domain.Move{r.Moves, r.Reversals} {
		for _, m := range group {
			for _, l := range m.Lines {
				ids = append(ids, l.ID)
			}
		}
	}
	return ids
}

// Post creates one revaluation entry per delta, and its reversal when the company
// revalues in reversible mode.
func (p *JournalPoster) Post(ctx context.Context, tx Transaction, input PostInput) (*PostResult, error) {
	date := domain.TruncateDate(input.Date)
	settings := input.Company.RevaluationSettings
	result := &PostResult{}

	for _, delta := range input.Deltas {
		account := input.Accounts[delta.AccountID]
		if account == nil {
			return nil, fmt.Errorf("revalued account %s: %w", delta.AccountID, domain.ErrAccountNotFound)
		}

		label := domain.RenderLabel(input.LabelTemplate, domain.LabelValues{
			Account:     account.Code,
			AccountName: account.Name,
			Currency:    delta.Currency,
			Rate:        delta.Rate.String(),
			PartnerID:   delta.PartnerID,
			Date:        date.Format(time.DateOnly),
		})

		move, err := p.newMove(ctx, tx, input.Company, input.Journal, date, label, domain.MoveKindRevaluation)
		if err != nil {
			return nil, err
		}
		move.Lines = p.revaluationLines(move, delta, account, settings, label)

		if err := p.create(ctx, tx, move); err != nil {
			return nil, err
		}
		result.Moves = append(result.Moves, move)

		if settings.ReversibleRevaluations {
			reversalDate := settings.EffectiveReversalPolicy().ReversalDate(date)
			reversal, err := p.reverse(ctx, tx, move, input.Company, input.Journal, reversalDate)
			if err != nil {
				return nil, err
			}
			result.Reversals = append(result.Reversals, reversal)
		}
	}

	return result, nil
}

// Reverse posts the equal and opposite entry of a revaluation entry, dated date.
func (p *JournalPoster) Reverse(ctx context.Context, tx Transaction, move *domain.Move, company *domain.Company, journal *domain.Journal, date time.Time) (*domain.Move, error) {
	if move.Kind != domain.MoveKindRevaluation {
		return nil, domain.ErrNotRevaluationMove
	}
	if move.IsReversed() {
		return nil, domain.ErrAlreadyReversed
	}

	return p.reverse(ctx, tx, move, company, journal, domain.TruncateDate(date))
}

func (p *JournalPoster) reverse(ctx context.Context, tx Transaction, move *domain.Move, company *domain.Company, journal *domain.Journal, date time.Time) (*domain.Move, error) {
	reversal, err := p.newMove(ctx, tx, company, journal, date, "Reversal of "+move.Name, domain.MoveKindReversal)
	if err != nil {
		return nil, err
	}

	originalID := move.ID
	reversal.ReversalOfID = &originalID
	reversal.Lines = move.Reversed(date)
	for _, l := range reversal.Lines {
		l.ID = p.idGen.Generate()
		l.MoveID = reversal.ID
		l.CreatedAt = reversal.CreatedAt
	}

	if err := p.create(ctx, tx, reversal); err != nil {
		return nil, err
	}

	if err := p.moveRepo.SetReversedBy(ctx, tx, move.ID, reversal.ID); err != nil {
		return nil, err
	}
	reversalID := reversal.ID
	move.ReversedByID = &reversalID

	return reversal, nil
}

func (p *JournalPoster) newMove(ctx context.Context, tx Transaction, company *domain.Company, journal *domain.Journal, date time.Time, ref string, kind domain.MoveKind) (*domain.Move, error) {
	seq, err := p.moveRepo.NextSequence(ctx, tx, journal.ID, date.Year())
	if err != nil {
		return nil, err
	}

	return &domain.Move{
		ID:        p.idGen.Generate(),
		Name:      fmt.Sprintf("%s/%04d/%04d", journal.Code, date.Year(), seq),
		CompanyID: company.ID,
		JournalID: journal.ID,
		Date:      date,
		Ref:       ref,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// revaluationLines books the delta on the revalued account against the gain or loss account.
// Both lines carry the group currency with a zero foreign amount.
func (p *JournalPoster) revaluationLines(move *domain.Move, delta domain.Delta, account *domain.Account, settings domain.RevaluationSettings, label string) []*domain.MoveLine {
	revalued := &domain.MoveLine{
		ID:              p.idGen.Generate(),
		MoveID:          move.ID,
		CompanyID:       move.CompanyID,
		AccountID:       account.ID,
		PartnerID:       delta.PartnerID,
		Currency:        delta.Currency,
		AmountCurrency:  decimal.Zero,
		Debit:           decimal.Zero,
		Credit:          decimal.Zero,
		Date:            move.Date,
		Label:           label,
		Revaluation:     true,
		RevaluationRate: delta.Rate,
		CreatedAt:       move.CreatedAt,
	}
	counterpart := &domain.MoveLine{
		ID:                p.idGen.Generate(),
		MoveID:            move.ID,
		CompanyID:         move.CompanyID,
		Currency:          delta.Currency,
		AmountCurrency:    decimal.Zero,
		Debit:             decimal.Zero,
		Credit:            decimal.Zero,
		Date:              move.Date,
		Label:             label,
		AnalyticAccountID: settings.AnalyticAccountID,
		Revaluation:       true,
		RevaluationRate:   delta.Rate,
		CreatedAt:         move.CreatedAt,
	}

	if delta.Sign == domain.SignGain {
		revalued.Debit = delta.Amount
		counterpart.AccountID = settings.GainAccountID
		counterpart.Credit = delta.Amount
	} else {
		revalued.Credit = delta.Amount
		counterpart.AccountID = settings.LossAccountID
		counterpart.Debit = delta.Amount
	}

	return []*domain.MoveLine{revalued, counterpart}
}

func (p *JournalPoster) create(ctx context.Context, tx Transaction, move *domain.Move) error {
	if err := move.Validate(); err != nil {
		return fmt.Errorf("entry %s: %w", move.Name, err)
	}
	return p.moveRepo.Create(ctx, tx, move)
}
