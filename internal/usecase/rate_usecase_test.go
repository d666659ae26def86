package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
	"github.com/iho/fxreval/internal/usecase/mocks"
)

func usdRates() []domain.Rate {
	return []domain.Rate{
		{ID: "r1", Currency: "USD", Date: date("2024-01-01"), Rate: dec("1.10")},
		{ID: "r2", Currency: "USD", Date: date("2024-02-01"), Rate: dec("1.08")},
		{ID: "r3", Currency: "USD", CompanyID: "c1", Date: date("2024-02-01"), Rate: dec("1.07")},
		{ID: "r4", Currency: "USD", CompanyID: "c2", Date: date("2024-03-01"), Rate: dec("1.20")},
		{ID: "r5", Currency: "USD", Date: date("2024-04-01"), Rate: dec("1.05")},
	}
}

func newRateUseCase(rateRepo usecase.RateRepository, cache usecase.Cache) (*usecase.RateUseCase, *mocks.MockOutboxRepository, *mocks.MockAuditRepository, *mocks.MockTransactionManager) {
	companies := mocks.NewMockCompanyRepository(
		&domain.Company{ID: "c1", Currency: "EUR"},
		&domain.Company{ID: "c2", Currency: "EUR"},
	)
	outbox := mocks.NewMockOutboxRepository()
	audit := mocks.NewMockAuditRepository()
	txManager := mocks.NewMockTransactionManager()

	uc := usecase.NewRateUseCase(txManager, companies, rateRepo, outbox, audit, cache, mocks.NewMockIDGenerator(), 0, nil)
	return uc, outbox, audit, txManager
}

func TestRateUseCase_RateAsOf(t *testing.T) {
	tests := []struct {
		name     string
		company  string
		currency string
		day      string
		want     string
		wantErr  bool
	}{
		{name: "home currency", company: "c1", currency: "eur", day: "2024-01-15", want: "1"},
		{name: "latest shared rate", company: "c1", currency: "USD", day: "2024-01-31", want: "1.10"},
		{name: "company rate wins on same date", company: "c1", currency: "USD", day: "2024-02-15", want: "1.07"},
		{name: "other company rate ignored", company: "c1", currency: "USD", day: "2024-03-15", want: "1.07"},
		{name: "own company rate", company: "c2", currency: "USD", day: "2024-03-15", want: "1.20"},
		{name: "rate on the exact date", company: "c1", currency: "usd", day: "2024-04-01", want: "1.05"},
		{name: "before first rate", company: "c1", currency: "USD", day: "2023-12-31", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			rateRepo := mocks.NewMockRateRepository(ctrl)
			rateRepo.EXPECT().ListByCurrency(gomock.Any(), "USD").Return(usdRates(), nil).AnyTimes()

			uc, _, _, _ := newRateUseCase(rateRepo, nil)

			rate, err := uc.RateAsOf(context.Background(), tt.company, tt.currency, date(tt.day))
			if tt.wantErr {
				var missing *domain.MissingRateError
				if !errors.As(err, &missing) {
					t.Fatalf("expected MissingRateError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !rate.Equal(dec(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, rate)
			}
		})
	}
}

func TestRateUseCase_RateAsOf_CacheMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rateRepo := mocks.NewMockRateRepository(ctrl)
	cache := mocks.NewMockCache(ctrl)

	gomock.InOrder(
		cache.EXPECT().Get(gomock.Any(), "rates:USD").Return(nil, usecase.ErrCacheMiss),
		rateRepo.EXPECT().ListByCurrency(gomock.Any(), "USD").Return(usdRates(), nil),
		cache.EXPECT().Set(gomock.Any(), "rates:USD", gomock.Any(), usecase.DefaultRateCacheTTL).Return(nil),
	)

	uc, _, _, _ := newRateUseCase(rateRepo, cache)

	rate, err := uc.RateAsOf(context.Background(), "c1", "USD", date("2024-02-15"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rate.Equal(dec("1.07")) {
		t.Errorf("expected 1.07, got %s", rate)
	}
}

func TestRateUseCase_RateAsOf_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cached, err := json.Marshal([]map[string]any{
		{"id": "r1", "date": date("2024-01-01"), "rate": "1.10"},
		{"id": "r3", "company_id": "c1", "date": date("2024-02-01"), "rate": "1.07"},
	})
	if err != nil {
		t.Fatal(err)
	}

	rateRepo := mocks.NewMockRateRepository(ctrl)
	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "rates:USD").Return(cached, nil)

	uc, _, _, _ := newRateUseCase(rateRepo, cache)

	rate, err := uc.RateAsOf(context.Background(), "c1", "USD", date("2024-02-15"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rate.Equal(dec("1.07")) {
		t.Errorf("expected 1.07, got %s", rate)
	}
}

func TestRateUseCase_RateAsOf_CacheDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rateRepo := mocks.NewMockRateRepository(ctrl)
	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "rates:USD").Return(nil, errors.New("connection refused"))
	rateRepo.EXPECT().ListByCurrency(gomock.Any(), "USD").Return(usdRates(), nil)
	cache.EXPECT().Set(gomock.Any(), "rates:USD", gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	uc, _, _, _ := newRateUseCase(rateRepo, cache)

	rate, err := uc.RateAsOf(context.Background(), "c1", "USD", date("2024-01-15"))
	if err != nil {
		t.Fatalf("cache failures should not fail the lookup: %v", err)
	}
	if !rate.Equal(dec("1.10")) {
		t.Errorf("expected 1.10, got %s", rate)
	}
}

func TestRateUseCase_ListRates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rateRepo := mocks.NewMockRateRepository(ctrl)
	rateRepo.EXPECT().ListByCurrency(gomock.Any(), "USD").Return(usdRates(), nil)

	uc, _, _, _ := newRateUseCase(rateRepo, nil)

	rates, err := uc.ListRates(context.Background(), "c1", "usd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, r := range rates {
		ids = append(ids, r.ID)
	}
	want := []string{"r5", "r2", "r3", "r1"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("expected %v, got %v", want, ids)
			break
		}
	}

	if _, err := uc.ListRates(context.Background(), "c1", "XXX"); !errors.Is(err, domain.ErrInvalidCurrency) {
		t.Errorf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestRateUseCase_SetRate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rateRepo := mocks.NewMockRateRepository(ctrl)
	cache := mocks.NewMockCache(ctrl)

	rateRepo.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx usecase.Transaction, rate *domain.Rate) error {
			if rate.Currency != "USD" || rate.CompanyID != "c1" {
				t.Errorf("unexpected rate %+v", rate)
			}
			return nil
		})
	cache.EXPECT().Delete(gomock.Any(), "rates:USD").Return(nil)

	uc, outbox, audit, txManager := newRateUseCase(rateRepo, cache)

	rate, err := uc.SetRate(context.Background(), usecase.SetRateInput{
		CompanyID: "c1",
		Currency:  " usd ",
		Date:      date("2024-05-01").Add(13 * time.Hour),
		Rate:      dec("1.0825"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !rate.Date.Equal(date("2024-05-01")) {
		t.Errorf("expected date truncated to 2024-05-01, got %s", rate.Date)
	}
	if txManager.Committed() != 1 {
		t.Errorf("expected 1 committed transaction, got %d", txManager.Committed())
	}
	if len(outbox.Events) != 1 || outbox.Events[0].EventType != domain.EventTypeRateSet {
		t.Errorf("expected one rate.set event, got %+v", outbox.Events)
	}
	if len(audit.Logs) != 1 || audit.Logs[0].Action != string(domain.AuditActionRateSet) {
		t.Errorf("expected one rate.set audit log, got %+v", audit.Logs)
	}
}

func TestRateUseCase_SetRate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.SetRateInput
		wantErr error
	}{
		{
			name:    "unknown currency",
			input:   usecase.SetRateInput{Currency: "ABC", Date: date("2024-01-01"), Rate: dec("1")},
			wantErr: domain.ErrInvalidCurrency,
		},
		{
			name:    "zero rate",
			input:   usecase.SetRateInput{Currency: "USD", Date: date("2024-01-01"), Rate: dec("0")},
			wantErr: domain.ErrInvalidRate,
		},
		{
			name:    "negative rate",
			input:   usecase.SetRateInput{Currency: "USD", Date: date("2024-01-01"), Rate: dec("-1.1")},
			wantErr: domain.ErrInvalidRate,
		},
		{
			name:    "rate too large",
			input:   usecase.SetRateInput{Currency: "USD", Date: date("2024-01-01"), Rate: dec("1000000001")},
			wantErr: domain.ErrRateTooLarge,
		},
		{
			name:    "unknown company",
			input:   usecase.SetRateInput{CompanyID: "c9", Currency: "USD", Date: date("2024-01-01"), Rate: dec("1")},
			wantErr: domain.ErrCompanyNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			uc, outbox, _, _ := newRateUseCase(mocks.NewMockRateRepository(ctrl), nil)

			_, err := uc.SetRate(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if len(outbox.Events) != 0 {
				t.Errorf("expected no events, got %d", len(outbox.Events))
			}
		})
	}
}
