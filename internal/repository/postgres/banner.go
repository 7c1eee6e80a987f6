package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/database"
	apperrors "github.com/yogeshdgrg/BR-Dashboard/pkg/errors"
)

const bannerColumns = "id, name, image_url, link, is_active, created_at, updated_at"

// BannerRepository implements repository.BannerRepository using PostgreSQL.
type BannerRepository struct {
	db database.DBTX
}

// NewBannerRepository creates a new PostgreSQL-backed banner repository.
func NewBannerRepository(db database.DBTX) *BannerRepository {
	return &BannerRepository{db: db}
}

// Create inserts a new banner into the database.
func (r *BannerRepository) Create(ctx context.Context, b *domain.Banner) error {
	query := `
		INSERT INTO banners (` + bannerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		b.ID,
		b.Name,
		b.ImageURL,
		b.Link,
		b.IsActive,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert banner: %w", err)
	}

	return nil
}

// GetByID retrieves a banner by its ID.
func (r *BannerRepository) GetByID(ctx context.Context, id string) (*domain.Banner, error) {
	query := `
		SELECT ` + bannerColumns + `
		FROM banners
		WHERE id = $1`

	var b domain.Banner
	err := r.db.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.Name,
		&b.ImageURL,
		&b.Link,
		&b.IsActive,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan banner: %w", err)
	}

	return &b, nil
}

// List returns all banners, optionally restricted to active ones.
func (r *BannerRepository) List(ctx context.Context, activeOnly bool) ([]domain.Banner, error) {
	query := `
		SELECT ` + bannerColumns + `
		FROM banners`
	if activeOnly {
		query += `
		WHERE is_active`
	}
	query += `
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	defer rows.Close()

	var banners []domain.Banner
	for rows.Next() {
		var b domain.Banner
		if err := rows.Scan(
			&b.ID,
			&b.Name,
			&b.ImageURL,
			&b.Link,
			&b.IsActive,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan banner row: %w", err)
		}
		banners = append(banners, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate banner rows: %w", err)
	}

	if banners == nil {
		banners = []domain.Banner{}
	}

	return banners, nil
}

// Update modifies an existing banner in the database.
func (r *BannerRepository) Update(ctx context.Context, b *domain.Banner) error {
	b.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE banners
		SET name = $1, image_url = $2, link = $3, is_active = $4, updated_at = $5
		WHERE id = $6`

	ct, err := r.db.Exec(ctx, query,
		b.Name,
		b.ImageURL,
		b.Link,
		b.IsActive,
		b.UpdatedAt,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("update banner: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("banner", b.ID)
	}

	return nil
}

// Delete removes a banner from the database by its ID.
func (r *BannerRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM banners WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete banner: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("banner", id)
	}

	return nil
}
