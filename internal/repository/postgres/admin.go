package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/database"
	apperrors "github.com/yogeshdgrg/BR-Dashboard/pkg/errors"
)

// AdminRepository implements repository.AdminRepository using PostgreSQL.
type AdminRepository struct {
	db database.DBTX
}

// NewAdminRepository creates a new PostgreSQL-backed admin repository.
func NewAdminRepository(db database.DBTX) *AdminRepository {
	return &AdminRepository{db: db}
}

// Create inserts a new admin account into the database.
func (r *AdminRepository) Create(ctx context.Context, a *domain.Admin) error {
	query := `
		INSERT INTO admins (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		a.ID,
		a.Email,
		a.PasswordHash,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("admin", "email", a.Email)
		}
		return fmt.Errorf("insert admin: %w", err)
	}

	return nil
}

// GetByEmail retrieves an admin account by email.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM admins
		WHERE email = $1`

	var a domain.Admin
	err := r.db.QueryRow(ctx, query, email).Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan admin: %w", err)
	}

	return &a, nil
}
