package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MoveKind tells host moves apart from moves created by revaluation runs.
type MoveKind string

const (
	MoveKindRegular     MoveKind = "regular"
	MoveKindRevaluation MoveKind = "revaluation"
	MoveKindReversal    MoveKind = "reversal"
)

// Move is a journal entry made of balanced lines.
type Move struct {
	ID           string
	Name         string
	CompanyID    string
	JournalID    string
	Date         time.Time
	Ref          string
	Kind         MoveKind
	ReversalOfID *string
	ReversedByID *string
	Lines        []*MoveLine
	CreatedAt    time.Time
}

// MoveLine is a single ledger line.
type MoveLine struct {
	ID        string
	MoveID    string
	CompanyID string
	AccountID string
	PartnerID string
	// Currency is empty for lines booked in home currency only.
	Currency          string
	AmountCurrency    decimal.Decimal
	Debit             decimal.Decimal
	Credit            decimal.Decimal
	Date              time.Time
	Label             string
	AnalyticAccountID string
	ReconciledAt      *time.Time
	Revaluation       bool
	// RevaluationRate is the rate a revaluation line marked its group to, zero on other lines.
	RevaluationRate decimal.Decimal
	CreatedAt       time.Time
}

// Balance returns debit minus credit.
func (l *MoveLine) Balance() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

// OpenAt reports whether the line is not fully reconciled as of date.
func (l *MoveLine) OpenAt(date time.Time) bool {
	return l.ReconciledAt == nil || TruncateDate(*l.ReconciledAt).After(TruncateDate(date))
}

// Totals returns the sum of debits and credits.
func (m *Move) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range m.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// Validate checks the move carries at least two valid lines that balance.
func (m *Move) Validate() error {
	if len(m.Lines) < 2 {
		return ErrTooFewLines
	}
	for i, l := range m.Lines {
		if l.AccountID == "" {
			return fmt.Errorf("line %d: %w", i, ErrAccountNotFound)
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("line %d: %w", i, ErrInvalidAmount)
		}
		if l.Debit.IsPositive() && l.Credit.IsPositive() {
			return fmt.Errorf("line %d: debit and credit both set: %w", i, ErrInvalidAmount)
		}
	}
	debit, credit := m.Totals()
	if !debit.Equal(credit) {
		return fmt.Errorf("%w: debit=%s credit=%s", ErrUnbalanced, debit, credit)
	}
	return nil
}

// IsReversed reports whether a reversal has been posted for the move.
func (m *Move) IsReversed() bool {
	return m.ReversedByID != nil
}

// Reversed builds the equal and opposite lines of the move, dated date.
func (m *Move) Reversed(date time.Time) []*MoveLine {
	lines := make([]*MoveLine, 0, len(m.Lines))
	for _, l := range m.Lines {
		lines = append(lines, &MoveLine{
			CompanyID:         l.CompanyID,
			AccountID:         l.AccountID,
			PartnerID:         l.PartnerID,
			Currency:          l.Currency,
			AmountCurrency:    l.AmountCurrency.Neg(),
			Debit:             l.Credit,
			Credit:            l.Debit,
			Date:              date,
			Label:             l.Label,
			AnalyticAccountID: l.AnalyticAccountID,
			Revaluation:       l.Revaluation,
			RevaluationRate:   l.RevaluationRate,
		})
	}
	return lines
}
