package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func TestTxManagerBegin(t *testing.T) {
	tests := []struct {
		name   string
		opts   []TxOption
		expect pgx.TxOptions
	}{
		{name: "server default"},
		{
			name:   "serializable runs",
			opts:   []TxOption{WithIsoLevel(pgx.Serializable)},
			expect: pgx.TxOptions{IsoLevel: pgx.Serializable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPool := newMockPool(t)
			mockPool.ExpectBeginTx(tt.expect)
			mockPool.ExpectCommit()

			tx, err := newTxManagerWithPool(mockPool, tt.opts...).Begin(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := tx.Commit(context.Background()); err != nil {
				t.Fatalf("commit failed: %v", err)
			}

			assertExpectations(t, mockPool)
		})
	}
}

func TestTxManagerBeginError(t *testing.T) {
	mockPool := newMockPool(t)
	beginErr := errors.New("too many connections")
	mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable}).WillReturnError(beginErr)

	_, err := newTxManagerWithPool(mockPool, WithIsoLevel(pgx.Serializable)).Begin(context.Background())
	if !errors.Is(err, beginErr) {
		t.Fatalf("expected begin error, got %v", err)
	}
}

func TestTxRollback(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectRollback()

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestTxRollbackAfterCommit(t *testing.T) {
	tx := &Tx{tx: closedTx{}}
	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("expected rollback of a closed transaction to be a no-op, got %v", err)
	}
}

func TestParseIsoLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    pgx.TxIsoLevel
		wantErr bool
	}{
		{name: "", want: ""},
		{name: "serializable", want: pgx.Serializable},
		{name: "REPEATABLE_READ", want: pgx.RepeatableRead},
		{name: " read committed ", want: pgx.ReadCommitted},
		{name: "snapshot", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseIsoLevel(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseIsoLevel(%q) expected error", tt.name)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseIsoLevel(%q) = %q, %v; want %q", tt.name, got, err, tt.want)
		}
	}
}

// closedTx is a transaction that was already committed.
type closedTx struct {
	pgx.Tx
}

func (closedTx) Rollback(context.Context) error { return pgx.ErrTxClosed }

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}
