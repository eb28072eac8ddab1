package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"salon-booking/internal/db/models"
)

// ServiceRepository handles database operations for services.
type ServiceRepository struct {
	db *sqlx.DB
}

// NewServiceRepository creates a new ServiceRepository.
func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// GetByID retrieves an active service by its ID. Returns (nil, nil) when no
// such service exists.
func (r *ServiceRepository) GetByID(ctx context.Context, id int) (*models.Service, error) {
	var svc models.Service
	err := r.db.GetContext(ctx, &svc,
		`SELECT id, master_id, name, duration_min, price, is_active, created_at, updated_at
		 FROM services WHERE id = $1 AND is_active = true`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &svc, nil
}
