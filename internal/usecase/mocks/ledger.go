package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
)

// InMemoryLedger keeps moves and lines in memory. It implements MoveRepository,
// LedgerLineRepository and LedgerRepository so that revaluation runs can be
// replayed against the entries they posted.
type InMemoryLedger struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	home     string
	moves    map[string]*domain.Move
	lines    []*domain.MoveLine
	seq      map[string]int

	CreateFunc func(ctx context.Context, tx usecase.Transaction, move *domain.Move) error
}

// NewInMemoryLedger creates a ledger whose companies all use homeCurrency.
func NewInMemoryLedger(homeCurrency string, accounts ...*domain.Account) *InMemoryLedger {
	l := &InMemoryLedger{
		accounts: make(map[string]*domain.Account),
		home:     homeCurrency,
		moves:    make(map[string]*domain.Move),
		seq:      make(map[string]int),
	}
	for _, a := range accounts {
		l.accounts[a.ID] = a
	}
	return l
}

// Book records a host line converted at rate, balanced by an opposite line in the
// same currency on counterAccountID. A positive amount debits accountID. The partner
// is only set on the first line.
func (l *InMemoryLedger) Book(id, accountID, counterAccountID, partnerID, currency string, amount, rate decimal.Decimal, date time.Time) *domain.MoveLine {
	l.mu.Lock()
	defer l.mu.Unlock()

	home := domain.ToHome(amount, rate)
	line := &domain.MoveLine{
		ID:             id,
		MoveID:         "host-" + id,
		AccountID:      accountID,
		PartnerID:      partnerID,
		Currency:       currency,
		AmountCurrency: amount,
		Debit:          decimal.Max(home, decimal.Zero),
		Credit:         decimal.Max(home.Neg(), decimal.Zero),
		Date:           domain.TruncateDate(date),
	}
	counter := &domain.MoveLine{
		ID:             id + "-counter",
		MoveID:         line.MoveID,
		AccountID:      counterAccountID,
		Currency:       currency,
		AmountCurrency: amount.Neg(),
		Debit:          line.Credit,
		Credit:         line.Debit,
		Date:           line.Date,
	}
	l.moves[line.MoveID] = &domain.Move{ID: line.MoveID, Kind: domain.MoveKindRegular, Date: line.Date, Lines: []*domain.MoveLine{line, counter}}
	l.lines = append(l.lines, line, counter)

	return line
}

// Reconcile marks the lines as fully reconciled on date.
func (l *InMemoryLedger) Reconcile(date time.Time, lines ...*domain.MoveLine) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d := domain.TruncateDate(date)
	for _, line := range lines {
		line.ReconciledAt = &d
	}
}

// Lines returns the lines posted on accountID.
func (l *InMemoryLedger) Lines(accountID string) []*domain.MoveLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*domain.MoveLine
	for _, line := range l.lines {
		if line.AccountID == accountID {
			out = append(out, line)
		}
	}
	return out
}

// Moves returns the moves of the given kind ordered by name.
func (l *InMemoryLedger) Moves(kind domain.MoveKind) []*domain.Move {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*domain.Move
	for _, m := range l.moves {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (l *InMemoryLedger) Create(ctx context.Context, tx usecase.Transaction, move *domain.Move) error {
	if l.CreateFunc != nil {
		return l.CreateFunc(ctx, tx, move)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.moves[move.ID] = move
	l.lines = append(l.lines, move.Lines...)
	return nil
}

func (l *InMemoryLedger) GetByID(ctx context.Context, id string) (*domain.Move, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.moves[id]; ok {
		return m, nil
	}
	return nil, domain.ErrMoveNotFound
}

func (l *InMemoryLedger) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Move, error) {
	return l.GetByID(ctx, id)
}

func (l *InMemoryLedger) SetReversedBy(ctx context.Context, tx usecase.Transaction, id, reversedByID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.moves[id]
	if !ok {
		return domain.ErrMoveNotFound
	}
	m.ReversedByID = &reversedByID
	return nil
}

func (l *InMemoryLedger) NextSequence(ctx context.Context, tx usecase.Transaction, journalID string, year int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := journalID + "/" + time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
	l.seq[key]++
	return l.seq[key], nil
}

func (l *InMemoryLedger) OpenBalances(ctx context.Context, tx usecase.Transaction, q usecase.OpenBalanceQuery) ([]domain.GroupBalance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	wanted := make(map[string]bool, len(q.AccountIDs))
	for _, id := range q.AccountIDs {
		wanted[id] = true
	}

	date := domain.TruncateDate(q.Date)
	groups := make(map[domain.GroupKey]*domain.GroupBalance)
	var order []domain.GroupKey

	// Latest revaluation per group regardless of the run date. Lines are kept in
	// posting order, so the last one of a day wins.
	last := make(map[domain.GroupKey]*domain.MoveLine)
	for _, line := range l.lines {
		m := l.moves[line.MoveID]
		if !line.Revaluation || m == nil || m.Kind != domain.MoveKindRevaluation {
			continue
		}
		key := domain.GroupKey{AccountID: line.AccountID, Currency: line.Currency, PartnerID: line.PartnerID}
		if prev, ok := last[key]; !ok || !line.Date.Before(prev.Date) {
			last[key] = line
		}
	}

	for _, line := range l.lines {
		if !wanted[line.AccountID] || line.Currency == "" || line.Currency == q.HomeCurrency {
			continue
		}
		if line.Date.After(date) || !line.OpenAt(date) {
			continue
		}

		key := domain.GroupKey{AccountID: line.AccountID, Currency: line.Currency, PartnerID: line.PartnerID}
		g, ok := groups[key]
		if !ok {
			g = &domain.GroupBalance{GroupKey: key, ForeignBalance: decimal.Zero, BookedBalance: decimal.Zero}
			if rl, ok := last[key]; ok {
				d := rl.Date
				g.LastRevaluation = &d
				g.LastRevaluationRate = rl.RevaluationRate
			}
			groups[key] = g
			order = append(order, key)
		}
		g.ForeignBalance = g.ForeignBalance.Add(line.AmountCurrency)
		g.BookedBalance = g.BookedBalance.Add(line.Balance())
	}

	result := make([]domain.GroupBalance, 0, len(order))
	for _, key := range order {
		result = append(result, *groups[key])
	}
	return result, nil
}

func (l *InMemoryLedger) CurrencyConflicts(ctx context.Context, tx usecase.Transaction, companyID string, accountIDs []string, date time.Time) ([]domain.CurrencyConflict, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d := domain.TruncateDate(date)
	counts := make(map[[2]string]int)
	var order [][2]string

	for _, id := range accountIDs {
		account := l.accounts[id]
		if account == nil || account.Currency == "" {
			continue
		}
		for _, line := range l.lines {
			if line.AccountID != id || line.Revaluation || line.Date.After(d) || !line.OpenAt(d) {
				continue
			}
			if account.AcceptsCurrency(line.Currency, l.home) {
				continue
			}
			cur := line.Currency
			if cur == "" {
				cur = l.home
			}
			key := [2]string{id, cur}
			if counts[key] == 0 {
				order = append(order, key)
			}
			counts[key]++
		}
	}

	result := make([]domain.CurrencyConflict, 0, len(order))
	for _, key := range order {
		account := l.accounts[key[0]]
		result = append(result, domain.CurrencyConflict{
			AccountID:       account.ID,
			AccountCode:     account.Code,
			AccountCurrency: account.Currency,
			LineCurrency:    key[1],
			Lines:           counts[key],
		})
	}
	return result, nil
}

func (l *InMemoryLedger) Totals(ctx context.Context) (usecase.LedgerTotals, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := usecase.LedgerTotals{
		Debit:             decimal.Zero,
		Credit:            decimal.Zero,
		RevaluationDebit:  decimal.Zero,
		RevaluationCredit: decimal.Zero,
	}
	for _, line := range l.lines {
		t.Debit = t.Debit.Add(line.Debit)
		t.Credit = t.Credit.Add(line.Credit)
		if line.Revaluation {
			t.RevaluationDebit = t.RevaluationDebit.Add(line.Debit)
			t.RevaluationCredit = t.RevaluationCredit.Add(line.Credit)
		}
	}
	return t, nil
}
