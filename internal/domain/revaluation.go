package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupKey identifies an aggregated open balance.
type GroupKey struct {
	AccountID string
	Currency  string
	PartnerID string
}

// GroupBalance is the open foreign-currency position of one account, currency and partner as of a date.
type GroupBalance struct {
	GroupKey
	ForeignBalance decimal.Decimal
	// BookedBalance is the home-currency balance including earlier revaluation lines.
	BookedBalance   decimal.Decimal
	LastRevaluation *time.Time
	// LastRevaluationRate is the rate of the revaluation at LastRevaluation, zero when unknown.
	LastRevaluationRate decimal.Decimal
}

// Sign tells a revaluation gain from a loss.
type Sign string

const (
	SignGain Sign = "gain"
	SignLoss Sign = "loss"
)

// Delta is the home-currency adjustment that brings a group to its mark-to-market value.
type Delta struct {
	GroupKey
	// Amount is always positive; Sign carries the direction.
	Amount decimal.Decimal
	Sign   Sign
	Rate   decimal.Decimal
	Date   time.Time
	// Target is the home-currency value of the group at Rate.
	Target decimal.Decimal
	Booked decimal.Decimal
}

// NewDelta builds a delta from a signed difference. It returns false when diff is zero.
func NewDelta(key GroupKey, diff, rate, target, booked decimal.Decimal, date time.Time) (Delta, bool) {
	if diff.IsZero() {
		return Delta{}, false
	}
	d := Delta{
		GroupKey: key,
		Amount:   diff.Abs(),
		Sign:     SignGain,
		Rate:     rate,
		Date:     date,
		Target:   target,
		Booked:   booked,
	}
	if diff.IsNegative() {
		d.Sign = SignLoss
	}
	return d, true
}

// Signed returns the delta as a signed home-currency amount.
func (d Delta) Signed() decimal.Decimal {
	if d.Sign == SignLoss {
		return d.Amount.Neg()
	}
	return d.Amount
}

// CurrencyConflict is an open line booked in a currency its account does not accept.
type CurrencyConflict struct {
	AccountID       string
	AccountCode     string
	AccountCurrency string
	LineCurrency    string
	Lines           int
}
