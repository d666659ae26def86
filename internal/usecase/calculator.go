package usecase

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/domain"
)

// CalculationInput is everything needed to compute revaluation deltas as of Date.
type CalculationInput struct {
	Date         time.Time
	HomeCurrency string
	Groups       []domain.GroupBalance
	// Rates maps a currency to its rate as of Date.
	Rates map[string]decimal.Decimal
	// Accounts is used to order the deltas by account code.
	Accounts map[string]*domain.Account
}

// CalculationResult holds the deltas to post and the number of groups left alone
// because they were revalued after the date.
type CalculationResult struct {
	Deltas  []domain.Delta
	Skipped int
}

// RevaluationCalculator turns open balances into revaluation deltas. It has no side effects.
type RevaluationCalculator struct{}

// NewRevaluationCalculator creates a new RevaluationCalculator.
func NewRevaluationCalculator() *RevaluationCalculator {
	return &RevaluationCalculator{}
}

// RequiredCurrencies returns the sorted currencies that need a rate to revalue groups at date.
func (c *RevaluationCalculator) RequiredCurrencies(groups []domain.GroupBalance, homeCurrency string, date time.Time) []string {
	seen := make(map[string]bool)
	for _, g := range groups {
		if !c.candidate(g, homeCurrency) || laterRevaluation(g, date) || revaluedOn(g, date) {
			continue
		}
		seen[g.Currency] = true
	}

	currencies := make([]string, 0, len(seen))
	for cur := range seen {
		currencies = append(currencies, cur)
	}
	sort.Strings(currencies)

	return currencies
}

// Calculate computes, for every group, the difference between its value at the
// rate of the date and its booked home-currency balance. A group already revalued
// on the date keeps the rate of that revaluation.
func (c *RevaluationCalculator) Calculate(input CalculationInput) (*CalculationResult, error) {
	date := domain.TruncateDate(input.Date)
	result := &CalculationResult{}
	candidates := 0

	for _, g := range input.Groups {
		if !c.candidate(g, input.HomeCurrency) {
			continue
		}
		candidates++

		if laterRevaluation(g, date) {
			result.Skipped++
			continue
		}

		rate, ok := markRate(g, date, input.Rates)
		if !ok {
			return nil, &domain.MissingRateError{Currency: g.Currency, Date: date}
		}

		target := domain.ToHome(g.ForeignBalance, rate)
		diff := target.Sub(g.BookedBalance)

		if delta, ok := domain.NewDelta(g.GroupKey, diff, rate, target, g.BookedBalance, date); ok {
			result.Deltas = append(result.Deltas, delta)
		}
	}

	if candidates > 0 && result.Skipped == candidates {
		return nil, domain.ErrAlreadyRevalued
	}

	sortDeltas(result.Deltas, input.Accounts)

	return result, nil
}

func (c *RevaluationCalculator) candidate(g domain.GroupBalance, homeCurrency string) bool {
	return g.Currency != "" && g.Currency != homeCurrency
}

func laterRevaluation(g domain.GroupBalance, date time.Time) bool {
	return g.LastRevaluation != nil && domain.TruncateDate(*g.LastRevaluation).After(domain.TruncateDate(date))
}

// revaluedOn reports whether the group was marked to a known rate on date.
func revaluedOn(g domain.GroupBalance, date time.Time) bool {
	return g.LastRevaluation != nil &&
		domain.TruncateDate(*g.LastRevaluation).Equal(domain.TruncateDate(date)) &&
		g.LastRevaluationRate.IsPositive()
}

// markRate returns the rate a group is valued at on date. Lines already revalued
// on date are never marked to a second rate for the same day, so only lines
// booked since that revaluation can produce a delta.
func markRate(g domain.GroupBalance, date time.Time, rates map[string]decimal.Decimal) (decimal.Decimal, bool) {
	if revaluedOn(g, date) {
		return g.LastRevaluationRate, true
	}
	rate, ok := rates[g.Currency]
	return rate, ok && rate.IsPositive()
}

func sortDeltas(deltas []domain.Delta, accounts map[string]*domain.Account) {
	code := func(id string) string {
		if a, ok := accounts[id]; ok && a != nil {
			return a.Code
		}
		return id
	}

	sort.SliceStable(deltas, func(i, j int) bool {
		a, b := deltas[i], deltas[j]
		if ca, cb := code(a.AccountID), code(b.AccountID); ca != cb {
			return ca < cb
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		return a.PartnerID < b.PartnerID
	})
}
