package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/adapter/http/dto"
	"github.com/iho/fxreval/internal/usecase"
)

type ledgerServiceStub struct {
	checkFn func(ctx context.Context) (*usecase.LedgerTotals, error)
}

func (s *ledgerServiceStub) CheckConsistency(ctx context.Context) (*usecase.LedgerTotals, error) {
	return s.checkFn(ctx)
}

func TestLedgerHandler_CheckConsistency(t *testing.T) {
	balanced := &usecase.LedgerTotals{
		Debit:  decimal.NewFromInt(100),
		Credit: decimal.NewFromInt(100),
	}
	unbalanced := &usecase.LedgerTotals{
		Debit:  decimal.NewFromInt(100),
		Credit: decimal.NewFromInt(90),
	}

	tests := []struct {
		name           string
		totals         *usecase.LedgerTotals
		err            error
		wantCode       int
		wantConsistent bool
	}{
		{name: "consistent", totals: balanced, wantCode: http.StatusOK, wantConsistent: true},
		{name: "inconsistent", totals: unbalanced, err: usecase.ErrInconsistentLedger, wantCode: http.StatusConflict},
		{name: "failure", err: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewLedgerHandler(&ledgerServiceStub{
				checkFn: func(ctx context.Context) (*usecase.LedgerTotals, error) {
					return tt.totals, tt.err
				},
			})

			rec := httptest.NewRecorder()
			handler.CheckConsistency(rec, httptest.NewRequest(http.MethodGet, "/ledger/consistency", nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.totals == nil {
				return
			}

			var resp dto.ConsistencyResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Consistent != tt.wantConsistent || !resp.Debit.Equal(tt.totals.Debit) {
				t.Fatalf("unexpected response %+v", resp)
			}
		})
	}
}
