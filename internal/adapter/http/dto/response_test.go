package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
)

func TestAccountFromDomain(t *testing.T) {
	now := time.Now()
	account := &domain.Account{
		ID:                  "acc-1",
		CompanyID:           "c1",
		Code:                "411100",
		Name:                "Receivable USD",
		Kind:                domain.AccountKindReceivable,
		Currency:            "USD",
		CurrencyRevaluation: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	resp := AccountFromDomain(account)
	if resp.ID != account.ID || resp.Kind != "receivable" || !resp.CurrencyRevaluation {
		t.Fatalf("unexpected account response: %+v", resp)
	}

	list := AccountsFromDomain([]*domain.Account{account})
	if len(list) != 1 || list[0].ID != account.ID {
		t.Fatalf("AccountsFromDomain returned %+v", list)
	}
}

func TestSettingsFromDomain_Defaults(t *testing.T) {
	company := &domain.Company{ID: "c1", Name: "Acme", Currency: "EUR"}

	resp := SettingsFromDomain(company)
	if resp.ReversalPolicy != string(domain.ReversalNextPeriod) {
		t.Fatalf("ReversalPolicy = %q", resp.ReversalPolicy)
	}
	if resp.LabelTemplate != domain.DefaultLabelTemplate {
		t.Fatalf("LabelTemplate = %q", resp.LabelTemplate)
	}
}

func TestRunResultFromUseCase(t *testing.T) {
	result := &usecase.RunResult{
		Name: usecase.RunResultName,
		Date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Gain: decimal.RequireFromString("9.09"),
		Loss: decimal.Zero,
	}

	resp := RunResultFromUseCase(result)
	if resp.Date != "2024-01-31" {
		t.Fatalf("Date = %q", resp.Date)
	}
	if resp.MoveIDs == nil || resp.LineIDs == nil {
		t.Fatalf("expected empty slices, got %+v", resp)
	}
	if !resp.Gain.Equal(result.Gain) {
		t.Fatalf("Gain = %s", resp.Gain)
	}
}

func TestMoveFromDomain(t *testing.T) {
	reversal := "m2"
	move := &domain.Move{
		ID:           "m1",
		Name:         "REV/2024/0001",
		Date:         time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Kind:         domain.MoveKindRevaluation,
		ReversedByID: &reversal,
		Lines: []*domain.MoveLine{
			{ID: "l1", AccountID: "a1", Currency: "USD", Debit: decimal.RequireFromString("9.09"), Revaluation: true},
			{ID: "l2", AccountID: "gain", Credit: decimal.RequireFromString("9.09"), Revaluation: true},
		},
	}

	resp := MoveFromDomain(move)
	if resp.Date != "2024-01-31" || resp.Kind != "revaluation" || len(resp.Lines) != 2 {
		t.Fatalf("unexpected move response: %+v", resp)
	}
	if resp.ReversedByID == nil || *resp.ReversedByID != "m2" {
		t.Fatalf("ReversedByID = %v", resp.ReversedByID)
	}
}

func TestUnrealizedReportFromUseCase(t *testing.T) {
	report := &usecase.UnrealizedReport{
		CompanyID:    "c1",
		HomeCurrency: "EUR",
		Date:         time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Lines: []usecase.UnrealizedLine{
			{AccountID: "a1", Currency: "USD", MissingRate: true},
			{AccountID: "a2", Currency: "GBP", RevaluedLater: true},
		},
	}

	resp := UnrealizedReportFromUseCase(report)
	if len(resp.Lines) != 2 || !resp.Lines[0].MissingRate || resp.HomeCurrency != "EUR" {
		t.Fatalf("unexpected report response: %+v", resp)
	}
	if !resp.Lines[1].RevaluedLater || resp.Lines[1].MissingRate {
		t.Fatalf("unexpected second line: %+v", resp.Lines[1])
	}
}
