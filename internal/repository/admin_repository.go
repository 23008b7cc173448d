package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/saferoute/admin-api/internal/models"
)

// AdminRepository provides read access to the admins directory.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByEmail returns an admin record by email address.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.AdminRecord, error) {
	const query = `SELECT id, email, name, full_name, barangay FROM admins WHERE email = $1 LIMIT 1`
	var record models.AdminRecord
	if err := r.db.GetContext(ctx, &record, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by email: %w", err)
	}
	return &record, nil
}
