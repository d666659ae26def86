package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/adapter/http/dto"
	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
)

// RateService defines the behavior needed by RateHandler.
type RateService interface {
	SetRate(ctx context.Context, input usecase.SetRateInput) (*domain.Rate, error)
	ListRates(ctx context.Context, companyID, currency string) ([]domain.Rate, error)
	RateAsOf(ctx context.Context, companyID, currency string, date time.Time) (decimal.Decimal, error)
}

// RateHandler handles exchange rate requests.
type RateHandler struct {
	rateUC RateService
	now    func() time.Time
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateUC RateService) *RateHandler {
	return &RateHandler{rateUC: rateUC, now: time.Now}
}

// Set records the rate of a currency on a date, replacing any rate already recorded for that day.
func (h *RateHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req dto.SetRateRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	rate, err := h.rateUC.SetRate(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to set rate", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RateFromDomain(*rate))
}

// List returns the rates of a currency visible to the company_id query parameter.
func (h *RateHandler) List(w http.ResponseWriter, r *http.Request) {
	rates, err := h.rateUC.ListRates(r.Context(), r.URL.Query().Get("company_id"), chi.URLParam(r, "currency"))
	if err != nil {
		writeDomainError(w, r, "failed to list rates", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListRatesResponse{Rates: dto.RatesFromDomain(rates)})
}

// AsOf returns the rate applicable on the date query parameter, today by default.
func (h *RateHandler) AsOf(w http.ResponseWriter, r *http.Request) {
	date, err := dto.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}
	if date.IsZero() {
		date = domain.TruncateDate(h.now().UTC())
	}

	companyID := r.URL.Query().Get("company_id")
	currency := domain.NormalizeCurrency(chi.URLParam(r, "currency"))

	rate, err := h.rateUC.RateAsOf(r.Context(), companyID, currency, date)
	if err != nil {
		writeDomainError(w, r, "failed to get rate", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RateAsOfResponse{
		Currency:  currency,
		CompanyID: companyID,
		Date:      date.Format(dto.DateLayout),
		Rate:      rate,
	})
}
