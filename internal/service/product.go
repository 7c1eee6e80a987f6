package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
	"github.com/yogeshdgrg/BR-Dashboard/internal/event"
	"github.com/yogeshdgrg/BR-Dashboard/internal/repository"
	"github.com/yogeshdgrg/BR-Dashboard/internal/storage"
	apperrors "github.com/yogeshdgrg/BR-Dashboard/pkg/errors"
)

// ProductCache is the read-through cache used by the product service. A nil
// cache disables caching.
type ProductCache interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	Set(ctx context.Context, p *domain.Product) error
	Invalidate(ctx context.Context, id string) error
}

// ProductService implements the business logic for product operations,
// including the image and color-variant reconciliation performed on edits.
type ProductService struct {
	repo     repository.ProductRepository
	store    storage.Storage
	cache    ProductCache
	producer event.Publisher
	logger   *slog.Logger

	// uploadStrict makes a failed upload abort the whole edit instead of
	// skipping the failed instruction.
	uploadStrict bool
}

// NewProductService creates a new product service. cache and producer may be
// nil, disabling caching and event publishing respectively.
func NewProductService(
	repo repository.ProductRepository,
	store storage.Storage,
	cache ProductCache,
	producer event.Publisher,
	logger *slog.Logger,
	uploadStrict bool,
) *ProductService {
	return &ProductService{
		repo:         repo,
		store:        store,
		cache:        cache,
		producer:     producer,
		logger:       logger,
		uploadStrict: uploadStrict,
	}
}

// NewColorInput describes one color variant supplied on product creation.
type NewColorInput struct {
	Name string
	File *domain.FileUpload
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string
	Description string
	Category    string
	Sizes       []string
	Feature     []string
	IsFeatured  bool
	Images      []*domain.FileUpload
	Colors      []NewColorInput
}

// UpdateProductInput holds the parameters for a partial product edit. Nil
// scalar pointers mean "leave unchanged"; an empty non-nil slice pointer
// clears the field.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	Sizes       *[]string
	Feature     *[]string
	IsFeatured  *bool

	// AddImages are new product images uploaded alongside the edit.
	AddImages []*domain.FileUpload

	// DeleteImageIDs are IDs of existing product images to remove.
	DeleteImageIDs []string

	// Variants are the color-variant edits, in request order. They are
	// resolved against the stored variant list when the edit is applied.
	Variants []domain.VariantEdit
}

// CreateProduct uploads the supplied images, assembles the product document,
// and persists it.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if input.Description == "" {
		return nil, apperrors.InvalidInput("product description is required")
	}
	if input.Category == "" {
		return nil, apperrors.InvalidInput("product category is required")
	}
	if len(input.Images) == 0 {
		return nil, apperrors.InvalidInput("at least one product image is required")
	}

	images, uploaded, err := s.uploadImages(ctx, input.Images)
	if err != nil {
		s.rollbackUploads(ctx, uploaded)
		return nil, err
	}
	if len(images) == 0 {
		return nil, apperrors.UploadFailed(fmt.Errorf("no product image could be uploaded"))
	}

	var colors []domain.ColorVariant
	for _, c := range input.Colors {
		if strings.TrimSpace(c.Name) == "" || c.File == nil {
			if s.uploadStrict {
				s.rollbackUploads(ctx, uploaded)
				return nil, apperrors.InvalidInput("color variants require a name and an image file")
			}
			s.logger.WarnContext(ctx, "skipping incomplete color variant",
				slog.String("name", c.Name),
			)
			continue
		}
		result, err := s.store.Upload(ctx, uploadInput(c.File))
		if err != nil {
			if s.uploadStrict {
				s.rollbackUploads(ctx, uploaded)
				return nil, apperrors.UploadFailed(err)
			}
			s.logger.WarnContext(ctx, "skipping color variant after failed upload",
				slog.String("name", c.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		uploaded = append(uploaded, result.URL)
		colors = append(colors, domain.ColorVariant{
			ID:   uuid.New().String(),
			Name: strings.TrimSpace(c.Name),
			Image: domain.ImageRef{
				ID:  uuid.New().String(),
				URL: result.URL,
			},
		})
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Sizes:       input.Sizes,
		Feature:     input.Feature,
		IsFeatured:  input.IsFeatured,
		Images:      images,
		Colors:      colors,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		// The document was never persisted, so the fresh uploads are
		// unreferenced and safe to remove.
		s.rollbackUploads(ctx, uploaded)
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.publishCreated(ctx, product)

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.Int("images", len(product.Images)),
		slog.Int("colors", len(product.Colors)),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID, consulting the cache first.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if s.cache != nil {
		if p, err := s.cache.Get(ctx, id); err == nil && p != nil {
			return p, nil
		}
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, product); err != nil {
			s.logger.WarnContext(ctx, "failed to cache product",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return product, nil
}

// ListProducts returns products matching the filter with the total count.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// UpdateProduct applies a partial edit to the product document. Uploads
// happen before the document is persisted; object-store deletions are
// deferred until after a successful persist, so the stored document never
// references an object that was already removed.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	applyScalarUpdates(product, input)

	images, imageDeletes, uploadedImages, err := s.reconcileImages(ctx, product.Images, input.AddImages, input.DeleteImageIDs)
	if err != nil {
		s.rollbackUploads(ctx, uploadedImages)
		return nil, err
	}

	instructions := domain.ExpandVariantEdits(product.Colors, input.Variants)
	colors, variantDeletes, uploadedVariants, err := s.reconcileVariants(ctx, product.Colors, instructions)
	if err != nil {
		s.rollbackUploads(ctx, uploadedImages)
		s.rollbackUploads(ctx, uploadedVariants)
		return nil, err
	}

	product.Images = images
	product.Colors = colors

	if err := s.repo.Update(ctx, product); err != nil {
		// No store deletes are issued on a failed persist: the old document
		// still references the old objects. The fresh uploads are left in
		// place and only logged, so a retry of the same request can never
		// race a delete of an object it is about to reference.
		uploaded := append(append([]string{}, uploadedImages...), uploadedVariants...)
		if len(uploaded) > 0 {
			s.logger.ErrorContext(ctx, "persist failed after uploads; objects left in store",
				slog.String("product_id", id),
				slog.Any("urls", uploaded),
			)
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	// The edit is durable; now remove the objects the document no longer
	// references. Failures are logged, never surfaced: the document is
	// already consistent and a leaked object is harmless.
	s.deleteDeferred(ctx, id, append(imageDeletes, variantDeletes...))

	s.invalidate(ctx, id)
	s.publishUpdated(ctx, product)

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", id),
		slog.Int("images", len(product.Images)),
		slog.Int("colors", len(product.Colors)),
	)

	return product, nil
}

// DeleteColorVariant removes a single color variant from the product.
func (s *ProductService) DeleteColorVariant(ctx context.Context, productID, colorID string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product for variant delete: %w", err)
	}

	idx := product.ColorByID(colorID)
	if idx < 0 {
		return nil, apperrors.NotFound("color variant", colorID)
	}

	removed := product.Colors[idx]
	product.Colors = append(product.Colors[:idx], product.Colors[idx+1:]...)

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("persist variant delete: %w", err)
	}

	s.deleteDeferred(ctx, productID, []string{removed.Image.URL})
	s.invalidate(ctx, productID)
	s.publishUpdated(ctx, product)

	s.logger.InfoContext(ctx, "color variant deleted",
		slog.String("product_id", productID),
		slog.String("color_id", colorID),
	)

	return product, nil
}

// DeleteProduct removes the product document, then best-effort deletes all of
// its stored images.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	var urls []string
	for _, img := range product.Images {
		urls = append(urls, img.URL)
	}
	for _, c := range product.Colors {
		urls = append(urls, c.Image.URL)
	}
	s.deleteDeferred(ctx, id, urls)

	s.invalidate(ctx, id)

	if s.producer != nil {
		if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

// applyScalarUpdates merges the provided scalar fields into the product.
func applyScalarUpdates(p *domain.Product, input *UpdateProductInput) {
	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Category != nil {
		p.Category = *input.Category
	}
	if input.Sizes != nil {
		p.Sizes = *input.Sizes
	}
	if input.Feature != nil {
		p.Feature = *input.Feature
	}
	if input.IsFeatured != nil {
		p.IsFeatured = *input.IsFeatured
	}
}

func uploadInput(f *domain.FileUpload) *storage.UploadInput {
	return &storage.UploadInput{
		FileName:    f.FileName,
		ContentType: f.ContentType,
		Size:        f.Size,
		Data:        f.Data,
	}
}

// rollbackUploads best-effort deletes objects uploaded during a request that
// was aborted before anything referenced them.
func (s *ProductService) rollbackUploads(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.store.Delete(ctx, url); err != nil {
			s.logger.WarnContext(ctx, "failed to roll back upload",
				slog.String("url", url),
				slog.String("error", err.Error()),
			)
		}
	}
}

// deleteDeferred best-effort deletes objects after a successful persist.
func (s *ProductService) deleteDeferred(ctx context.Context, productID string, urls []string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.store.Delete(ctx, url); err != nil {
			s.logger.WarnContext(ctx, "failed to delete stored object",
				slog.String("product_id", productID),
				slog.String("url", url),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *ProductService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate product cache",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ProductService) publishCreated(ctx context.Context, p *domain.Product) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishProductCreated(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ProductService) publishUpdated(ctx context.Context, p *domain.Product) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishProductUpdated(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}
}
