package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"salon-booking/internal/db/models"
)

// MasterRepository handles database operations for masters.
type MasterRepository struct {
	db *sqlx.DB
}

// NewMasterRepository creates a new MasterRepository.
func NewMasterRepository(db *sqlx.DB) *MasterRepository {
	return &MasterRepository{db: db}
}

// GetByID retrieves a master by its ID. Returns (nil, nil) when none exists.
func (r *MasterRepository) GetByID(ctx context.Context, id int) (*models.Master, error) {
	var m models.Master
	err := r.db.GetContext(ctx, &m,
		`SELECT id, name, slug, status, created_at, updated_at FROM masters WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Exists reports whether a master with the given ID exists.
func (r *MasterRepository) Exists(ctx context.Context, id int) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, `SELECT 1 FROM masters WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
