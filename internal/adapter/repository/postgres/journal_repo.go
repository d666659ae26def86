package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fxreval/internal/domain"
)

// JournalRepository implements usecase.JournalRepository.
type JournalRepository struct {
	db querier
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return newJournalRepository(pool)
}

func newJournalRepository(db querier) *JournalRepository {
	return &JournalRepository{db: db}
}

// GetByID retrieves a journal by ID.
func (r *JournalRepository) GetByID(ctx context.Context, id string) (*domain.Journal, error) {
	var j domain.Journal
	var kind string

	err := r.db.QueryRow(ctx,
		`SELECT id, company_id, code, name, kind, created_at FROM journals WHERE id = $1`, id,
	).Scan(&j.ID, &j.CompanyID, &j.Code, &j.Name, &kind, &j.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJournalNotFound
		}
		return nil, err
	}

	j.Kind = domain.JournalKind(kind)
	return &j, nil
}
