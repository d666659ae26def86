package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/domain"
)

// ReportUseCase builds the unrealized gain and loss report.
type ReportUseCase struct {
	txManager   TransactionManager
	companyRepo CompanyRepository
	accountRepo AccountRepository
	lineRepo    LedgerLineRepository
	rates       RateProvider
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(
	txManager TransactionManager,
	companyRepo CompanyRepository,
	accountRepo AccountRepository,
	lineRepo LedgerLineRepository,
	rates RateProvider,
) *ReportUseCase {
	return &ReportUseCase{
		txManager:   txManager,
		companyRepo: companyRepo,
		accountRepo: accountRepo,
		lineRepo:    lineRepo,
		rates:       rates,
	}
}

// UnrealizedLine is one open foreign-currency position of the report.
type UnrealizedLine struct {
	AccountID      string
	AccountCode    string
	AccountName    string
	Currency       string
	PartnerID      string
	ForeignBalance decimal.Decimal
	BookedBalance  decimal.Decimal
	// Rate, RevaluedBalance and Unrealized are zero when MissingRate or RevaluedLater is set.
	Rate            decimal.Decimal
	RevaluedBalance decimal.Decimal
	Unrealized      decimal.Decimal
	MissingRate     bool
	// RevaluedLater marks a group a run at the report date would leave alone.
	RevaluedLater bool
}

// UnrealizedReport lists what a revaluation run at Date would post. Groups revalued
// after Date are listed but left out of the totals.
type UnrealizedReport struct {
	CompanyID    string
	HomeCurrency string
	Date         time.Time
	Lines        []UnrealizedLine
	TotalGain    decimal.Decimal
	TotalLoss    decimal.Decimal
	Net          decimal.Decimal
}

// Unrealized reports, per flagged group, the gain or loss that revaluation at date would book.
// A missing rate marks the line instead of failing the report. A group already revalued
// at date is valued at the rate of that revaluation, as a run would.
func (uc *ReportUseCase) Unrealized(ctx context.Context, companyID string, date time.Time) (*UnrealizedReport, error) {
	if date.IsZero() {
		return nil, domain.ErrMissingDate
	}
	date = domain.TruncateDate(date)

	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accountRepo.ListRevaluable(ctx, tx, company.ID)
	if err != nil {
		return nil, err
	}

	report := &UnrealizedReport{
		CompanyID:    company.ID,
		HomeCurrency: company.Currency,
		Date:         date,
		TotalGain:    decimal.Zero,
		TotalLoss:    decimal.Zero,
		Net:          decimal.Zero,
	}
	if len(accounts) == 0 {
		return report, nil
	}

	accountIDs := make([]string, 0, len(accounts))
	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		accountIDs = append(accountIDs, a.ID)
		accountMap[a.ID] = a
	}

	groups, err := uc.lineRepo.OpenBalances(ctx, tx, OpenBalanceQuery{
		CompanyID:    company.ID,
		AccountIDs:   accountIDs,
		Date:         date,
		HomeCurrency: company.Currency,
	})
	if err != nil {
		return nil, err
	}

	rates := make(map[string]*decimal.Decimal)
	for _, g := range groups {
		if g.Currency == "" || g.Currency == company.Currency {
			continue
		}

		line := UnrealizedLine{
			AccountID:      g.AccountID,
			Currency:       g.Currency,
			PartnerID:      g.PartnerID,
			ForeignBalance: g.ForeignBalance,
			BookedBalance:  g.BookedBalance,
		}
		if a := accountMap[g.AccountID]; a != nil {
			line.AccountCode = a.Code
			line.AccountName = a.Name
		}

		if laterRevaluation(g, date) {
			line.RevaluedLater = true
			report.Lines = append(report.Lines, line)
			continue
		}

		rate, err := uc.rateFor(ctx, company.ID, g, date, rates)
		if err != nil {
			return nil, err
		}
		if rate == nil {
			line.MissingRate = true
			report.Lines = append(report.Lines, line)
			continue
		}

		line.Rate = *rate
		line.RevaluedBalance = domain.ToHome(g.ForeignBalance, *rate)
		line.Unrealized = line.RevaluedBalance.Sub(g.BookedBalance)

		if line.Unrealized.IsPositive() {
			report.TotalGain = report.TotalGain.Add(line.Unrealized)
		} else {
			report.TotalLoss = report.TotalLoss.Add(line.Unrealized.Neg())
		}
		report.Lines = append(report.Lines, line)
	}

	report.Net = report.TotalGain.Sub(report.TotalLoss)

	sort.SliceStable(report.Lines, func(i, j int) bool {
		a, b := report.Lines[i], report.Lines[j]
		if a.AccountCode != b.AccountCode {
			return a.AccountCode < b.AccountCode
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		return a.PartnerID < b.PartnerID
	})

	return report, nil
}

// rateFor returns the rate a run at date would value the group at, or nil when
// the currency has no rate. Lookups are memoized in rates per currency.
func (uc *ReportUseCase) rateFor(ctx context.Context, companyID string, g domain.GroupBalance, date time.Time, rates map[string]*decimal.Decimal) (*decimal.Decimal, error) {
	if revaluedOn(g, date) {
		rate := g.LastRevaluationRate
		return &rate, nil
	}
	if rate, ok := rates[g.Currency]; ok {
		return rate, nil
	}

	rate, err := uc.rates.RateAsOf(ctx, companyID, g.Currency, date)
	var missing *domain.MissingRateError
	switch {
	case err == nil:
		rates[g.Currency] = &rate
	case errors.As(err, &missing):
		rates[g.Currency] = nil
	default:
		return nil, err
	}
	return rates[g.Currency], nil
}
