package domain

import (
	"time"
)

// AccountKind classifies chart of accounts entries relevant to revaluation.
type AccountKind string

const (
	AccountKindReceivable AccountKind = "receivable"
	AccountKindPayable    AccountKind = "payable"
	AccountKindBank       AccountKind = "bank"
	AccountKindOther      AccountKind = "other"
)

// IsValid reports whether the kind is known.
func (k AccountKind) IsValid() bool {
	switch k {
	case AccountKindReceivable, AccountKindPayable, AccountKindBank, AccountKindOther:
		return true
	}
	return false
}

// Account represents a host ledger account.
type Account struct {
	ID        string
	CompanyID string
	Code      string
	Name      string
	Kind      AccountKind
	// Currency is the fixed currency of the account, empty when any currency may be booked.
	Currency            string
	CurrencyRevaluation bool
	Reconcilable        bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AcceptsCurrency reports whether a line in currency may be booked on the account.
// A line without currency counts as home currency.
func (a *Account) AcceptsCurrency(currency, homeCurrency string) bool {
	if a.Currency == "" {
		return true
	}
	if currency == "" {
		currency = homeCurrency
	}
	return currency == a.Currency
}
