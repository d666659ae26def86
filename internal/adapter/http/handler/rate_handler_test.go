package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/adapter/http/dto"
	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
)

type rateServiceStub struct {
	setFn  func(ctx context.Context, input usecase.SetRateInput) (*domain.Rate, error)
	listFn func(ctx context.Context, companyID, currency string) ([]domain.Rate, error)
	asOfFn func(ctx context.Context, companyID, currency string, date time.Time) (decimal.Decimal, error)
}

func (s *rateServiceStub) SetRate(ctx context.Context, input usecase.SetRateInput) (*domain.Rate, error) {
	return s.setFn(ctx, input)
}

func (s *rateServiceStub) ListRates(ctx context.Context, companyID, currency string) ([]domain.Rate, error) {
	return s.listFn(ctx, companyID, currency)
}

func (s *rateServiceStub) RateAsOf(ctx context.Context, companyID, currency string, date time.Time) (decimal.Decimal, error) {
	return s.asOfFn(ctx, companyID, currency, date)
}

func TestRateHandler_Set(t *testing.T) {
	var captured usecase.SetRateInput
	handler := NewRateHandler(&rateServiceStub{
		setFn: func(ctx context.Context, input usecase.SetRateInput) (*domain.Rate, error) {
			captured = input
			return &domain.Rate{ID: "r1", Currency: input.Currency, Date: input.Date, Rate: input.Rate}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/rates", strings.NewReader(`{"currency":"USD","date":"2024-01-31","rate":"1.10"}`))
	rec := httptest.NewRecorder()

	handler.Set(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Currency != "USD" || !captured.Rate.Equal(decimal.RequireFromString("1.1")) {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.RateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "r1" || resp.Date != "2024-01-31" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestRateHandler_Set_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{name: "bad currency", body: `{"currency":"US","date":"2024-01-31","rate":"1"}`, wantCode: http.StatusBadRequest},
		{name: "bad rate", body: `{"currency":"USD","date":"2024-01-31","rate":"x"}`, wantCode: http.StatusBadRequest},
		{name: "non-positive rate", body: `{"currency":"USD","date":"2024-01-31","rate":"0"}`, err: domain.ErrInvalidRate, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewRateHandler(&rateServiceStub{
				setFn: func(ctx context.Context, input usecase.SetRateInput) (*domain.Rate, error) {
					return nil, tt.err
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/rates", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.Set(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestRateHandler_List(t *testing.T) {
	var gotCompany, gotCurrency string
	handler := NewRateHandler(&rateServiceStub{
		listFn: func(ctx context.Context, companyID, currency string) ([]domain.Rate, error) {
			gotCompany, gotCurrency = companyID, currency
			return []domain.Rate{
				{Currency: "USD", CompanyID: "c1", Date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), Rate: decimal.RequireFromString("1.1")},
				{Currency: "USD", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Rate: decimal.RequireFromString("1.05")},
			}, nil
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/rates/USD?company_id=c1", nil), "currency", "USD")
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotCompany != "c1" || gotCurrency != "USD" {
		t.Fatalf("ListRates called with %q %q", gotCompany, gotCurrency)
	}

	var resp dto.ListRatesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Rates) != 2 {
		t.Fatalf("expected 2 rates, got %d", len(resp.Rates))
	}
}

func TestRateHandler_AsOf(t *testing.T) {
	handler := NewRateHandler(&rateServiceStub{
		asOfFn: func(ctx context.Context, companyID, currency string, date time.Time) (decimal.Decimal, error) {
			if currency != "USD" {
				t.Fatalf("expected normalized currency, got %q", currency)
			}
			return decimal.RequireFromString("1.10"), nil
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/rates/usd/as-of?company_id=c1&date=2024-01-15", nil), "currency", "usd")
	rec := httptest.NewRecorder()

	handler.AsOf(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.RateAsOfResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Date != "2024-01-15" || !resp.Rate.Equal(decimal.RequireFromString("1.1")) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestRateHandler_AsOf_Missing(t *testing.T) {
	handler := NewRateHandler(&rateServiceStub{
		asOfFn: func(ctx context.Context, companyID, currency string, date time.Time) (decimal.Decimal, error) {
			return decimal.Zero, &domain.MissingRateError{Currency: currency, Date: date}
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/rates/USD/as-of?company_id=c1&date=2020-01-01", nil), "currency", "USD")
	rec := httptest.NewRecorder()

	handler.AsOf(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
