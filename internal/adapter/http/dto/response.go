package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID                  string    `json:"id"`
	CompanyID           string    `json:"company_id"`
	Code                string    `json:"code"`
	Name                string    `json:"name"`
	Kind                string    `json:"kind"`
	Currency            string    `json:"currency,omitempty"`
	CurrencyRevaluation bool      `json:"currency_revaluation"`
	Reconcilable        bool      `json:"reconcilable"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:                  a.ID,
		CompanyID:           a.CompanyID,
		Code:                a.Code,
		Name:                a.Name,
		Kind:                string(a.Kind),
		Currency:            a.Currency,
		CurrencyRevaluation: a.CurrencyRevaluation,
		Reconcilable:        a.Reconcilable,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse is a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// RateResponse represents an exchange rate in API responses.
type RateResponse struct {
	ID        string          `json:"id,omitempty"`
	Currency  string          `json:"currency"`
	CompanyID string          `json:"company_id,omitempty"`
	Date      string          `json:"date"`
	Rate      decimal.Decimal `json:"rate"`
}

// RateFromDomain converts a domain rate to response.
func RateFromDomain(r domain.Rate) *RateResponse {
	return &RateResponse{
		ID:        r.ID,
		Currency:  r.Currency,
		CompanyID: r.CompanyID,
		Date:      formatDate(r.Date),
		Rate:      r.Rate,
	}
}

// RatesFromDomain converts domain rates to responses.
func RatesFromDomain(rates []domain.Rate) []*RateResponse {
	result := make([]*RateResponse, len(rates))
	for i, r := range rates {
		result[i] = RateFromDomain(r)
	}
	return result
}

// ListRatesResponse lists the rates of one currency, newest first.
type ListRatesResponse struct {
	Rates []*RateResponse `json:"rates"`
}

// RateAsOfResponse is the rate applicable on a date.
type RateAsOfResponse struct {
	Currency  string          `json:"currency"`
	CompanyID string          `json:"company_id"`
	Date      string          `json:"date"`
	Rate      decimal.Decimal `json:"rate"`
}

// SettingsResponse represents the revaluation settings of a company.
type SettingsResponse struct {
	CompanyID              string `json:"company_id"`
	CompanyName            string `json:"company_name"`
	HomeCurrency           string `json:"home_currency"`
	GainAccountID          string `json:"gain_account_id,omitempty"`
	LossAccountID          string `json:"loss_account_id,omitempty"`
	JournalID              string `json:"journal_id,omitempty"`
	AnalyticAccountID      string `json:"analytic_account_id,omitempty"`
	ReversibleRevaluations bool   `json:"reversible_revaluations"`
	ReversalPolicy         string `json:"reversal_policy"`
	LabelTemplate          string `json:"label_template"`
}

// SettingsFromDomain converts a company to its settings response. Unset policy and
// label template are reported with their effective defaults.
func SettingsFromDomain(c *domain.Company) *SettingsResponse {
	return &SettingsResponse{
		CompanyID:              c.ID,
		CompanyName:            c.Name,
		HomeCurrency:           c.Currency,
		GainAccountID:          c.GainAccountID,
		LossAccountID:          c.LossAccountID,
		JournalID:              c.JournalID,
		AnalyticAccountID:      c.AnalyticAccountID,
		ReversibleRevaluations: c.ReversibleRevaluations,
		ReversalPolicy:         string(c.EffectiveReversalPolicy()),
		LabelTemplate:          c.EffectiveLabelTemplate(),
	}
}

// RunDefaultsResponse carries the values proposed before a run.
type RunDefaultsResponse struct {
	Date          string `json:"date"`
	JournalID     string `json:"journal_id,omitempty"`
	LabelTemplate string `json:"label_template"`
}

// RunDefaultsFromUseCase converts run defaults to response.
func RunDefaultsFromUseCase(d *usecase.RunDefaults) *RunDefaultsResponse {
	return &RunDefaultsResponse{
		Date:          formatDate(d.Date),
		JournalID:     d.JournalID,
		LabelTemplate: d.LabelTemplate,
	}
}

// RunResultResponse describes the entries created by a revaluation run.
type RunResultResponse struct {
	Name      string          `json:"name"`
	Date      string          `json:"date"`
	MoveIDs   []string        `json:"move_ids"`
	LineIDs   []string        `json:"line_ids"`
	LineCount int             `json:"line_count"`
	Gain      decimal.Decimal `json:"gain"`
	Loss      decimal.Decimal `json:"loss"`
	Skipped   int             `json:"skipped"`
}

// RunResultFromUseCase converts a run result to response.
func RunResultFromUseCase(r *usecase.RunResult) *RunResultResponse {
	moveIDs := r.MoveIDs
	if moveIDs == nil {
		moveIDs = []string{}
	}
	lineIDs := r.LineIDs
	if lineIDs == nil {
		lineIDs = []string{}
	}

	return &RunResultResponse{
		Name:      r.Name,
		Date:      formatDate(r.Date),
		MoveIDs:   moveIDs,
		LineIDs:   lineIDs,
		LineCount: r.LineCount,
		Gain:      r.Gain,
		Loss:      r.Loss,
		Skipped:   r.Skipped,
	}
}

// MoveLineResponse represents a journal item.
type MoveLineResponse struct {
	ID                string          `json:"id"`
	AccountID         string          `json:"account_id"`
	PartnerID         string          `json:"partner_id,omitempty"`
	Currency          string          `json:"currency,omitempty"`
	AmountCurrency    decimal.Decimal `json:"amount_currency"`
	Debit             decimal.Decimal `json:"debit"`
	Credit            decimal.Decimal `json:"credit"`
	Label             string          `json:"label"`
	AnalyticAccountID string          `json:"analytic_account_id,omitempty"`
	Revaluation       bool            `json:"revaluation"`
}

// MoveResponse represents a journal entry in API responses.
type MoveResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	CompanyID    string              `json:"company_id"`
	JournalID    string              `json:"journal_id"`
	Date         string              `json:"date"`
	Ref          string              `json:"ref,omitempty"`
	Kind         string              `json:"kind"`
	ReversalOfID *string             `json:"reversal_of_id,omitempty"`
	ReversedByID *string             `json:"reversed_by_id,omitempty"`
	Lines        []*MoveLineResponse `json:"lines"`
	CreatedAt    time.Time           `json:"created_at"`
}

// MoveFromDomain converts a domain move to response.
func MoveFromDomain(m *domain.Move) *MoveResponse {
	lines := make([]*MoveLineResponse, len(m.Lines))
	for i, l := range m.Lines {
		lines[i] = &MoveLineResponse{
			ID:                l.ID,
			AccountID:         l.AccountID,
			PartnerID:         l.PartnerID,
			Currency:          l.Currency,
			AmountCurrency:    l.AmountCurrency,
			Debit:             l.Debit,
			Credit:            l.Credit,
			Label:             l.Label,
			AnalyticAccountID: l.AnalyticAccountID,
			Revaluation:       l.Revaluation,
		}
	}

	return &MoveResponse{
		ID:           m.ID,
		Name:         m.Name,
		CompanyID:    m.CompanyID,
		JournalID:    m.JournalID,
		Date:         formatDate(m.Date),
		Ref:          m.Ref,
		Kind:         string(m.Kind),
		ReversalOfID: m.ReversalOfID,
		ReversedByID: m.ReversedByID,
		Lines:        lines,
		CreatedAt:    m.CreatedAt,
	}
}

// UnrealizedLineResponse is one position of the unrealized gain and loss report.
type UnrealizedLineResponse struct {
	AccountID       string          `json:"account_id"`
	AccountCode     string          `json:"account_code"`
	AccountName     string          `json:"account_name"`
	Currency        string          `json:"currency"`
	PartnerID       string          `json:"partner_id,omitempty"`
	ForeignBalance  decimal.Decimal `json:"foreign_balance"`
	BookedBalance   decimal.Decimal `json:"booked_balance"`
	Rate            decimal.Decimal `json:"rate"`
	RevaluedBalance decimal.Decimal `json:"revalued_balance"`
	Unrealized      decimal.Decimal `json:"unrealized"`
	MissingRate     bool            `json:"missing_rate,omitempty"`
	RevaluedLater   bool            `json:"revalued_later,omitempty"`
}

// UnrealizedReportResponse is the unrealized gain and loss report.
type UnrealizedReportResponse struct {
	CompanyID    string                    `json:"company_id"`
	HomeCurrency string                    `json:"home_currency"`
	Date         string                    `json:"date"`
	Lines        []*UnrealizedLineResponse `json:"lines"`
	TotalGain    decimal.Decimal           `json:"total_gain"`
	TotalLoss    decimal.Decimal           `json:"total_loss"`
	Net          decimal.Decimal           `json:"net"`
}

// UnrealizedReportFromUseCase converts the report to response.
func UnrealizedReportFromUseCase(r *usecase.UnrealizedReport) *UnrealizedReportResponse {
	lines := make([]*UnrealizedLineResponse, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = &UnrealizedLineResponse{
			AccountID:       l.AccountID,
			AccountCode:     l.AccountCode,
			AccountName:     l.AccountName,
			Currency:        l.Currency,
			PartnerID:       l.PartnerID,
			ForeignBalance:  l.ForeignBalance,
			BookedBalance:   l.BookedBalance,
			Rate:            l.Rate,
			RevaluedBalance: l.RevaluedBalance,
			Unrealized:      l.Unrealized,
			MissingRate:     l.MissingRate,
			RevaluedLater:   l.RevaluedLater,
		}
	}

	return &UnrealizedReportResponse{
		CompanyID:    r.CompanyID,
		HomeCurrency: r.HomeCurrency,
		Date:         formatDate(r.Date),
		Lines:        lines,
		TotalGain:    r.TotalGain,
		TotalLoss:    r.TotalLoss,
		Net:          r.Net,
	}
}

// ConsistencyResponse reports the ledger totals.
type ConsistencyResponse struct {
	Consistent        bool            `json:"consistent"`
	Debit             decimal.Decimal `json:"debit"`
	Credit            decimal.Decimal `json:"credit"`
	RevaluationDebit  decimal.Decimal `json:"revaluation_debit"`
	RevaluationCredit decimal.Decimal `json:"revaluation_credit"`
}

// ConsistencyFromUseCase converts ledger totals to response.
func ConsistencyFromUseCase(t *usecase.LedgerTotals, consistent bool) *ConsistencyResponse {
	return &ConsistencyResponse{
		Consistent:        consistent,
		Debit:             t.Debit,
		Credit:            t.Credit,
		RevaluationDebit:  t.RevaluationDebit,
		RevaluationCredit: t.RevaluationCredit,
	}
}

// ErrorResponse represents an error in API responses.
// Warning is set when the run was refused for a reason the user can fix.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Warning bool   `json:"warning,omitempty"`
}
