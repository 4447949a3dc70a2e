package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
)

// PeriodRepository handles grading period persistence.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository creates a new period repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// GetOrCreate returns the period for (ordinal, year), creating it when
// missing. The (ordinal, year) unique constraint keeps concurrent creates
// from producing duplicates.
func (r *PeriodRepository) GetOrCreate(ctx context.Context, ordinal, year int) (*models.Period, error) {
	const insert = `INSERT INTO periods (id, ordinal, year) VALUES ($1, $2, $3)
        ON CONFLICT (ordinal, year) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), ordinal, year); err != nil {
		return nil, fmt.Errorf("create period: %w", err)
	}
	var period models.Period
	const query = `SELECT id, ordinal, year FROM periods WHERE ordinal = $1 AND year = $2`
	if err := r.db.GetContext(ctx, &period, query, ordinal, year); err != nil {
		return nil, fmt.Errorf("fetch period: %w", err)
	}
	return &period, nil
}

// FindByID returns the period with the given id.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.Period, error) {
	var period models.Period
	const query = `SELECT id, ordinal, year FROM periods WHERE id = $1`
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// ListByYear returns the periods of a year ordered by ordinal.
func (r *PeriodRepository) ListByYear(ctx context.Context, year int) ([]models.Period, error) {
	const query = `SELECT id, ordinal, year FROM periods WHERE year = $1 ORDER BY ordinal ASC`
	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query, year); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}
