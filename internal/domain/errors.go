package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// Lookup errors
	ErrCompanyNotFound = errors.New("company not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrJournalNotFound = errors.New("journal not found")
	ErrMoveNotFound    = errors.New("move not found")

	// Posting errors
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrTooFewLines        = errors.New("move needs at least two lines")
	ErrUnbalanced         = errors.New("move is not balanced")
	ErrAlreadyReversed    = errors.New("move is already reversed")
	ErrNotRevaluationMove = errors.New("move is not a revaluation entry")

	// Settings errors
	ErrMissingDate           = errors.New("revaluation date is required")
	ErrInvalidRate           = errors.New("rate must be positive")
	ErrInvalidLabel          = errors.New("invalid label template")
	ErrInvalidReversalPolicy = errors.New("invalid reversal policy")
	ErrForeignAccount        = errors.New("account belongs to another company")
)

// Warning marks errors meant to be shown to the user rather than treated as failures.
type Warning interface {
	error
	Warning() bool
}

type warning struct{ msg string }

func (w *warning) Error() string { return w.msg }
func (w *warning) Warning() bool { return true }

func newWarning(msg string) error { return &warning{msg: msg} }

// Run warnings
var (
	ErrAlreadyRevalued            = newWarning("the selected accounts were already revalued at a later date")
	ErrNothingToRevalue           = newWarning("no accounting entry has been posted")
	ErrMissingJournal             = newWarning("no revaluation journal is configured")
	ErrMissingRevaluationAccounts = newWarning("revaluation gain and loss accounts are not configured")
	ErrNoRevaluationAccounts      = newWarning("no account is flagged for currency revaluation")
	ErrCurrencyConflict           = newWarning("open lines conflict with the account currency")
)

// IsWarning reports whether err, or any error it wraps, is a user-facing warning.
func IsWarning(err error) bool {
	var w Warning
	return errors.As(err, &w) && w.Warning()
}

// MissingRateError is returned when no rate exists for a currency on or before a date.
type MissingRateError struct {
	Currency string
	Date     time.Time
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no exchange rate for %s on or before %s", e.Currency, e.Date.Format(time.DateOnly))
}

func (e *MissingRateError) Warning() bool { return true }

// CurrencyConflictError lists the accounts whose open lines conflict with their currency.
type CurrencyConflictError struct {
	Conflicts []CurrencyConflict
}

func (e *CurrencyConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s (%s) has %d open %s line(s)", c.AccountCode, c.AccountCurrency, c.Lines, c.LineCurrency))
	}
	return fmt.Sprintf("%s: %s", ErrCurrencyConflict, strings.Join(parts, "; "))
}

func (e *CurrencyConflictError) Warning() bool { return true }

func (e *CurrencyConflictError) Unwrap() error { return ErrCurrencyConflict }
