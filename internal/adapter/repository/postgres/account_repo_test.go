package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/fxreval/internal/domain"
)

func accountRows() *pgxmock.Rows {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return pgxmock.NewRows([]string{
		"id", "company_id", "code", "name", "kind", "currency",
		"currency_revaluation", "reconcilable", "created_at", "updated_at",
	}).
		AddRow("rec", "c1", "411000", "Receivable", "receivable", "", true, true, now, now).
		AddRow("bank", "c1", "512100", "Bank USD", "bank", "USD", true, false, now, now)
}

func TestAccountRepositoryGetByID(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery("FROM accounts WHERE id = ").WithArgs("rec").WillReturnRows(accountRows())
	mockPool.ExpectQuery("FROM accounts WHERE id = ").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	repo := newAccountRepository(mockPool)

	account, err := repo.GetByID(context.Background(), "rec")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Code != "411000" || account.Kind != domain.AccountKindReceivable || !account.CurrencyRevaluation {
		t.Errorf("unexpected account %+v", account)
	}

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositoryListRevaluable(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectQuery("currency_revaluation ORDER BY").WithArgs("c1").WillReturnRows(accountRows())
	mockPool.ExpectRollback()

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repo := newAccountRepository(mockPool)
	accounts, err := repo.ListRevaluable(context.Background(), tx, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[1].Currency != "USD" || accounts[1].Kind != domain.AccountKindBank {
		t.Errorf("unexpected bank account %+v", accounts[1])
	}

	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositoryListByCompany(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery("FROM accounts WHERE company_id").WithArgs("c1", 10, 20).WillReturnRows(accountRows())

	repo := newAccountRepository(mockPool)
	accounts, err := repo.ListByCompany(context.Background(), "c1", 10, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("expected 2 accounts, got %d", len(accounts))
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositorySetRevaluation(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectExec("UPDATE accounts").
		WithArgs("rec", false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec("UPDATE accounts").
		WithArgs("missing", true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := newAccountRepository(mockPool)
	if err := repo.SetRevaluation(context.Background(), "rec", false, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.SetRevaluation(context.Background(), "missing", true, time.Now()); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	assertExpectations(t, mockPool)
}
