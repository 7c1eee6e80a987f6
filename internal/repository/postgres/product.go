package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
	"github.com/yogeshdgrg/BR-Dashboard/internal/repository"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/database"
	apperrors "github.com/yogeshdgrg/BR-Dashboard/pkg/errors"
)

const productColumns = "id, name, description, category, sizes, feature, is_featured, images, colors, created_at, updated_at"

// ProductRepository implements repository.ProductRepository using PostgreSQL.
// The list-valued fields (sizes, feature, images, colors) are stored as JSONB
// so a product edit is a single-row, single-statement update.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	sizesJSON, featureJSON, imagesJSON, colorsJSON, err := marshalProductLists(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Category,
		sizesJSON,
		featureJSON,
		p.IsFeatured,
		imagesJSON,
		colorsJSON,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1`

	return r.scanProduct(ctx, query, id)
}

// List returns products matching the given filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.IsFeatured != nil {
		conditions = append(conditions, fmt.Sprintf("is_featured = $%d", argIndex))
		args = append(args, *filter.IsFeatured)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT `+productColumns+`,
			   count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)

	for rows.Next() {
		var (
			p           domain.Product
			sizesJSON   []byte
			featureJSON []byte
			imagesJSON  []byte
			colorsJSON  []byte
		)

		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Category,
			&sizesJSON,
			&featureJSON,
			&p.IsFeatured,
			&imagesJSON,
			&colorsJSON,
			&p.CreatedAt,
			&p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}

		if err := unmarshalProductLists(&p, sizesJSON, featureJSON, imagesJSON, colorsJSON); err != nil {
			return nil, 0, err
		}

		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, totalCount, nil
}

// Update replaces the stored product document in a single statement.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	sizesJSON, featureJSON, imagesJSON, colorsJSON, err := marshalProductLists(p)
	if err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, description = $2, category = $3, sizes = $4, feature = $5,
		    is_featured = $6, images = $7, colors = $8, updated_at = $9
		WHERE id = $10`

	ct, err := r.db.Exec(ctx, query,
		p.Name,
		p.Description,
		p.Category,
		sizesJSON,
		featureJSON,
		p.IsFeatured,
		imagesJSON,
		colorsJSON,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	return nil
}

// Delete removes a product from the database by its ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM products WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// scanProduct is a helper that executes a query expected to return a single product row.
func (r *ProductRepository) scanProduct(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	var (
		p           domain.Product
		sizesJSON   []byte
		featureJSON []byte
		imagesJSON  []byte
		colorsJSON  []byte
	)

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&sizesJSON,
		&featureJSON,
		&p.IsFeatured,
		&imagesJSON,
		&colorsJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	if err := unmarshalProductLists(&p, sizesJSON, featureJSON, imagesJSON, colorsJSON); err != nil {
		return nil, err
	}

	return &p, nil
}

func marshalProductLists(p *domain.Product) (sizes, feature, images, colors []byte, err error) {
	if sizes, err = json.Marshal(emptyIfNil(p.Sizes)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal sizes: %w", err)
	}
	if feature, err = json.Marshal(emptyIfNil(p.Feature)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal feature: %w", err)
	}
	if images, err = json.Marshal(emptyImagesIfNil(p.Images)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal images: %w", err)
	}
	if colors, err = json.Marshal(emptyColorsIfNil(p.Colors)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal colors: %w", err)
	}
	return sizes, feature, images, colors, nil
}

func unmarshalProductLists(p *domain.Product, sizes, feature, images, colors []byte) error {
	if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
		return fmt.Errorf("unmarshal sizes: %w", err)
	}
	if err := json.Unmarshal(feature, &p.Feature); err != nil {
		return fmt.Errorf("unmarshal feature: %w", err)
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return fmt.Errorf("unmarshal images: %w", err)
	}
	if err := json.Unmarshal(colors, &p.Colors); err != nil {
		return fmt.Errorf("unmarshal colors: %w", err)
	}
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyImagesIfNil(s []domain.ImageRef) []domain.ImageRef {
	if s == nil {
		return []domain.ImageRef{}
	}
	return s
}

func emptyColorsIfNil(s []domain.ColorVariant) []domain.ColorVariant {
	if s == nil {
		return []domain.ColorVariant{}
	}
	return s
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
