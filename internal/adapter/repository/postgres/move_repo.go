package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
)

// MoveRepository implements usecase.MoveRepository.
type MoveRepository struct {
	db querier
}

// NewMoveRepository creates a new MoveRepository.
func NewMoveRepository(pool *pgxpool.Pool) *MoveRepository {
	return newMoveRepository(pool)
}

func newMoveRepository(db querier) *MoveRepository {
	return &MoveRepository{db: db}
}

const insertMove = `
INSERT INTO moves (id, name, company_id, journal_id, date, ref, kind, reversal_of_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const insertMoveLine = `
INSERT INTO move_lines (
    id, move_id, company_id, account_id, partner_id, currency, amount_currency,
    debit, credit, date, label, analytic_account_id, reconciled_at, revaluation,
    revaluation_rate, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

// Create inserts a move and its lines within a transaction.
func (r *MoveRepository) Create(ctx context.Context, tx usecase.Transaction, move *domain.Move) error {
	q := conn(r.db, tx)

	_, err := q.Exec(ctx, insertMove,
		move.ID,
		move.Name,
		move.CompanyID,
		move.JournalID,
		timeToPgDate(move.Date),
		move.Ref,
		string(move.Kind),
		stringToPgText(move.ReversalOfID),
		timeToPgTimestamptz(move.CreatedAt),
	)
	if err != nil {
		return err
	}

	for _, l := range move.Lines {
		_, err := q.Exec(ctx, insertMoveLine,
			l.ID,
			move.ID,
			l.CompanyID,
			l.AccountID,
			l.PartnerID,
			l.Currency,
			decimalToNumeric(l.AmountCurrency),
			decimalToNumeric(l.Debit),
			decimalToNumeric(l.Credit),
			timeToPgDate(l.Date),
			l.Label,
			l.AnalyticAccountID,
			optionalTimeToPgDate(l.ReconciledAt),
			l.Revaluation,
			decimalToNumeric(l.RevaluationRate),
			timeToPgTimestamptz(l.CreatedAt),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

const selectMove = `
SELECT id, name, company_id, journal_id, date, ref, kind, reversal_of_id, reversed_by_id, created_at
FROM moves
WHERE id = $1`

const selectMoveLines = `
SELECT id, move_id, company_id, account_id, partner_id, currency, amount_currency,
       debit, credit, date, label, analytic_account_id, reconciled_at, revaluation,
       revaluation_rate, created_at
FROM move_lines
WHERE move_id = $1
ORDER BY created_at, id`

// GetByID retrieves a move with its lines.
func (r *MoveRepository) GetByID(ctx context.Context, id string) (*domain.Move, error) {
	return r.get(ctx, r.db, selectMove, id)
}

// GetByIDForUpdate retrieves a move with its lines and locks the move row.
func (r *MoveRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Move, error) {
	return r.get(ctx, conn(r.db, tx), selectMove+` FOR UPDATE`, id)
}

func (r *MoveRepository) get(ctx context.Context, q querier, query, id string) (*domain.Move, error) {
	var m domain.Move
	var kind string
	var reversalOf, reversedBy pgtype.Text

	err := q.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.Name,
		&m.CompanyID,
		&m.JournalID,
		&m.Date,
		&m.Ref,
		&kind,
		&reversalOf,
		&reversedBy,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMoveNotFound
		}
		return nil, err
	}

	m.Kind = domain.MoveKind(kind)
	m.ReversalOfID = pgTextToString(reversalOf)
	m.ReversedByID = pgTextToString(reversedBy)

	lines, err := r.lines(ctx, q, id)
	if err != nil {
		return nil, err
	}
	m.Lines = lines

	return &m, nil
}

func (r *MoveRepository) lines(ctx context.Context, q querier, moveID string) ([]*domain.MoveLine, error) {
	rows, err := q.Query(ctx, selectMoveLines, moveID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*domain.MoveLine
	for rows.Next() {
		var l domain.MoveLine
		var amountCurrency, debit, credit, rate pgtype.Numeric
		var reconciledAt pgtype.Date

		err := rows.Scan(
			&l.ID,
			&l.MoveID,
			&l.CompanyID,
			&l.AccountID,
			&l.PartnerID,
			&l.Currency,
			&amountCurrency,
			&debit,
			&credit,
			&l.Date,
			&l.Label,
			&l.AnalyticAccountID,
			&reconciledAt,
			&l.Revaluation,
			&rate,
			&l.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		l.AmountCurrency = numericToDecimal(amountCurrency)
		l.Debit = numericToDecimal(debit)
		l.Credit = numericToDecimal(credit)
		l.RevaluationRate = numericToDecimal(rate)
		l.ReconciledAt = pgDateToTime(reconciledAt)
		lines = append(lines, &l)
	}

	return lines, rows.Err()
}

// SetReversedBy links a move to the move that reverses it.
func (r *MoveRepository) SetReversedBy(ctx context.Context, tx usecase.Transaction, id, reversedByID string) error {
	tag, err := conn(r.db, tx).Exec(ctx,
		`UPDATE moves SET reversed_by_id = $2 WHERE id = $1 AND reversed_by_id IS NULL`,
		id, reversedByID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyReversed
	}

	return nil
}

const nextSequence = `
INSERT INTO journal_sequences (journal_id, year, last)
VALUES ($1, $2, 1)
ON CONFLICT (journal_id, year) DO UPDATE SET last = journal_sequences.last + 1
RETURNING last`

// NextSequence allocates the next entry number of a journal for a year.
// The sequence row stays locked until the transaction ends.
func (r *MoveRepository) NextSequence(ctx context.Context, tx usecase.Transaction, journalID string, year int) (int, error) {
	var seq int
	if err := conn(r.db, tx).QueryRow(ctx, nextSequence, journalID, year).Scan(&seq); err != nil {
		return 0, err
	}

	return seq, nil
}
