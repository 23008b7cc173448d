package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/saferoute/admin-api/internal/models"
)

const userColumns = `id, email, name, full_name, display_name, username, address, phone, contact, phone_number`

// UserRepository provides read access to the resident users directory.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user record by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.UserRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)
	var record models.UserRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &record, nil
}

// FindByEmail returns a user record by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 LIMIT 1`, userColumns)
	var record models.UserRecord
	if err := r.db.GetContext(ctx, &record, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &record, nil
}
