package repository

import (
	"context"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
)

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	Category   *string
	IsFeatured *bool
	Page       int
	PerPage    int
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns products matching the given filter along with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update replaces the full stored document of an existing product in a
	// single statement.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// BannerRepository defines the interface for banner persistence operations.
type BannerRepository interface {
	Create(ctx context.Context, banner *domain.Banner) error
	GetByID(ctx context.Context, id string) (*domain.Banner, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Banner, error)
	Update(ctx context.Context, banner *domain.Banner) error
	Delete(ctx context.Context, id string) error
}

// AdminRepository defines the interface for admin account lookups.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) error
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
}
