package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
)

// DateLayout is the wire format of every date field.
const DateLayout = time.DateOnly

var validate = validator.New()

// Validate checks the struct tags of a request and flattens the failures into one error.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fieldErr := range verrs {
		msg := fmt.Sprintf("%s failed on %s", fieldErr.Field(), fieldErr.Tag())
		if fieldErr.Param() != "" {
			msg += "=" + fieldErr.Param()
		}
		msgs = append(msgs, msg)
	}

	return errors.New(strings.Join(msgs, "; "))
}

// ParseDate parses an optional YYYY-MM-DD value. An empty value yields the zero time.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return t, nil
}

// RunRevaluationRequest represents a request to revalue a company's flagged accounts.
type RunRevaluationRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	JournalID string `json:"journal_id,omitempty" validate:"omitempty,max=64"`
	Label     string `json:"label,omitempty" validate:"omitempty,max=255"`
}

// ToUseCaseInput converts to use case input.
func (r *RunRevaluationRequest) ToUseCaseInput(companyID string) (usecase.RunInput, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return usecase.RunInput{}, err
	}

	return usecase.RunInput{
		CompanyID: companyID,
		Date:      date,
		JournalID: r.JournalID,
		Label:     r.Label,
	}, nil
}

// ReverseMoveRequest represents a request to reverse a revaluation entry.
// An empty date applies the company reversal policy.
type ReverseMoveRequest struct {
	Date string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ToUseCaseInput converts to use case input.
func (r *ReverseMoveRequest) ToUseCaseInput(moveID string) (usecase.ReverseInput, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return usecase.ReverseInput{}, err
	}

	return usecase.ReverseInput{MoveID: moveID, Date: date}, nil
}

// SetRateRequest represents a request to record an exchange rate.
type SetRateRequest struct {
	CompanyID string `json:"company_id,omitempty" validate:"omitempty,max=64"`
	Currency  string `json:"currency" validate:"required,len=3,alpha"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Rate      string `json:"rate" validate:"required"`
}

// ToUseCaseInput converts to use case input.
func (r *SetRateRequest) ToUseCaseInput() (usecase.SetRateInput, error) {
	rate, err := decimal.NewFromString(r.Rate)
	if err != nil {
		return usecase.SetRateInput{}, fmt.Errorf("invalid rate %q", r.Rate)
	}

	date, err := ParseDate(r.Date)
	if err != nil {
		return usecase.SetRateInput{}, err
	}

	return usecase.SetRateInput{
		CompanyID: r.CompanyID,
		Currency:  r.Currency,
		Date:      date,
		Rate:      rate,
	}, nil
}

// UpdateSettingsRequest replaces the revaluation settings of a company.
type UpdateSettingsRequest struct {
	GainAccountID          string `json:"gain_account_id" validate:"omitempty,max=64"`
	LossAccountID          string `json:"loss_account_id" validate:"omitempty,max=64"`
	JournalID              string `json:"journal_id" validate:"omitempty,max=64"`
	AnalyticAccountID      string `json:"analytic_account_id" validate:"omitempty,max=64"`
	ReversibleRevaluations bool   `json:"reversible_revaluations"`
	ReversalPolicy         string `json:"reversal_policy" validate:"omitempty,oneof=next_period next_day"`
	LabelTemplate          string `json:"label_template" validate:"omitempty,max=255"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateSettingsRequest) ToUseCaseInput(companyID string) usecase.UpdateSettingsInput {
	return usecase.UpdateSettingsInput{
		CompanyID:              companyID,
		GainAccountID:          r.GainAccountID,
		LossAccountID:          r.LossAccountID,
		JournalID:              r.JournalID,
		AnalyticAccountID:      r.AnalyticAccountID,
		ReversibleRevaluations: r.ReversibleRevaluations,
		ReversalPolicy:         domain.ReversalPolicy(r.ReversalPolicy),
		LabelTemplate:          r.LabelTemplate,
	}
}

// SetRevaluationRequest toggles the currency revaluation flag of an account.
type SetRevaluationRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
