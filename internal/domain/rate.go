package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// HomePrecision is the number of decimal places amounts are rounded to in home currency.
const HomePrecision int32 = 2

// Rate is an exchange rate: units of Currency per one unit of the company home currency.
type Rate struct {
	ID        string
	Currency  string
	CompanyID string // empty for a rate shared by every company
	Date      time.Time
	Rate      decimal.Decimal
	CreatedAt time.Time
}

// ToHome converts a foreign amount into home currency at rate.
func ToHome(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Div(rate).Round(HomePrecision)
}

// RateAsOf picks the most recent rate dated on or before date.
// On equal dates a company-scoped rate wins over a shared one.
func RateAsOf(rates []Rate, date time.Time) (Rate, bool) {
	day := TruncateDate(date)

	var (
		best  Rate
		found bool
	)
	for _, r := range rates {
		rd := TruncateDate(r.Date)
		if rd.After(day) {
			continue
		}
		if !found {
			best, found = r, true
			continue
		}
		bd := TruncateDate(best.Date)
		if rd.After(bd) || (rd.Equal(bd) && r.CompanyID != "" && best.CompanyID == "") {
			best = r
		}
	}

	return best, found
}

// SortRates orders rates by date, newest first.
func SortRates(rates []Rate) {
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].Date.After(rates[j].Date)
	})
}
