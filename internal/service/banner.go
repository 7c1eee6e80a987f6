package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
	"github.com/yogeshdgrg/BR-Dashboard/internal/repository"
	"github.com/yogeshdgrg/BR-Dashboard/internal/storage"
	apperrors "github.com/yogeshdgrg/BR-Dashboard/pkg/errors"
)

// BannerService implements the business logic for storefront banners.
type BannerService struct {
	repo   repository.BannerRepository
	store  storage.Storage
	logger *slog.Logger
}

// NewBannerService creates a new banner service.
func NewBannerService(repo repository.BannerRepository, store storage.Storage, logger *slog.Logger) *BannerService {
	return &BannerService{
		repo:   repo,
		store:  store,
		logger: logger,
	}
}

// CreateBannerInput holds the parameters for creating a banner.
type CreateBannerInput struct {
	Name     string
	Link     string
	IsActive bool
	Image    *domain.FileUpload
}

// UpdateBannerInput holds the parameters for a partial banner edit.
type UpdateBannerInput struct {
	Name     *string
	Link     *string
	IsActive *bool
	// Image, when set, replaces the banner image. The old object is deleted
	// from the store only after the new document is persisted.
	Image *domain.FileUpload
}

// CreateBanner uploads the banner image and persists the banner.
func (s *BannerService) CreateBanner(ctx context.Context, input *CreateBannerInput) (*domain.Banner, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("banner name is required")
	}
	if input.Image == nil {
		return nil, apperrors.InvalidInput("banner image is required")
	}

	result, err := s.store.Upload(ctx, uploadInput(input.Image))
	if err != nil {
		return nil, apperrors.UploadFailed(err)
	}

	now := time.Now().UTC()
	banner := &domain.Banner{
		ID:        uuid.New().String(),
		Name:      input.Name,
		ImageURL:  result.URL,
		Link:      input.Link,
		IsActive:  input.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, banner); err != nil {
		if delErr := s.store.Delete(ctx, result.URL); delErr != nil {
			s.logger.WarnContext(ctx, "failed to roll back banner upload",
				slog.String("url", result.URL),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("create banner: %w", err)
	}

	s.logger.InfoContext(ctx, "banner created", slog.String("banner_id", banner.ID))
	return banner, nil
}

// GetBanner retrieves a banner by ID.
func (s *BannerService) GetBanner(ctx context.Context, id string) (*domain.Banner, error) {
	banner, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get banner by id: %w", err)
	}
	return banner, nil
}

// ListBanners returns banners, optionally restricted to active ones.
func (s *BannerService) ListBanners(ctx context.Context, activeOnly bool) ([]domain.Banner, error) {
	banners, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	return banners, nil
}

// UpdateBanner applies a partial edit to a banner, replacing its image when a
// new file is supplied.
func (s *BannerService) UpdateBanner(ctx context.Context, id string, input *UpdateBannerInput) (*domain.Banner, error) {
	banner, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get banner for update: %w", err)
	}

	if input.Name != nil {
		banner.Name = *input.Name
	}
	if input.Link != nil {
		banner.Link = *input.Link
	}
	if input.IsActive != nil {
		banner.IsActive = *input.IsActive
	}

	oldURL := ""
	if input.Image != nil {
		result, err := s.store.Upload(ctx, uploadInput(input.Image))
		if err != nil {
			return nil, apperrors.UploadFailed(err)
		}
		oldURL = banner.ImageURL
		banner.ImageURL = result.URL
	}

	if err := s.repo.Update(ctx, banner); err != nil {
		return nil, fmt.Errorf("update banner: %w", err)
	}

	if oldURL != "" {
		if err := s.store.Delete(ctx, oldURL); err != nil {
			s.logger.WarnContext(ctx, "failed to delete replaced banner image",
				slog.String("banner_id", id),
				slog.String("url", oldURL),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "banner updated", slog.String("banner_id", id))
	return banner, nil
}

// DeleteBanner removes a banner and best-effort deletes its stored image.
func (s *BannerService) DeleteBanner(ctx context.Context, id string) error {
	banner, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get banner for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete banner: %w", err)
	}

	if err := s.store.Delete(ctx, banner.ImageURL); err != nil {
		s.logger.WarnContext(ctx, "failed to delete banner image",
			slog.String("banner_id", id),
			slog.String("url", banner.ImageURL),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "banner deleted", slog.String("banner_id", id))
	return nil
}
