package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
	apperrors "github.com/yogeshdgrg/BR-Dashboard/pkg/errors"
)

// reconcileVariants computes the product's new color-variant list from the
// edit instructions. Deletions are applied first so that a delete and an add
// in the same request behave like two sequential edits; renames and image
// replacements then apply to the survivors, and additions are appended in
// request order.
//
// Replacement images are uploaded before the old image URL is queued for
// deletion, and all queued deletions are deferred to after the persist.
// Instructions that fail validation or target an unknown variant are skipped
// and logged; in strict mode a failed upload aborts the whole edit.
func (s *ProductService) reconcileVariants(
	ctx context.Context,
	existing []domain.ColorVariant,
	instructions []domain.VariantInstruction,
) (final []domain.ColorVariant, deferDelete []string, uploaded []string, err error) {
	var deleteIDs []string
	var edits []domain.VariantInstruction

	for _, in := range instructions {
		if err := in.Validate(); err != nil {
			if s.uploadStrict {
				return nil, nil, nil, apperrors.InvalidInput(err.Error())
			}
			s.logger.WarnContext(ctx, "skipping invalid variant instruction",
				slog.String("op", string(in.Op)),
				slog.String("variant_id", in.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if in.Op == domain.VariantOpDelete {
			deleteIDs = append(deleteIDs, in.ID)
		} else {
			edits = append(edits, in)
		}
	}

	survivors, removed := domain.PartitionVariants(existing, deleteIDs)
	for _, v := range removed {
		deferDelete = append(deferDelete, v.Image.URL)
	}

	final = make([]domain.ColorVariant, len(survivors))
	copy(final, survivors)

	for _, in := range edits {
		switch in.Op {
		case domain.VariantOpRename:
			idx := variantIndex(final, in.ID)
			if idx < 0 {
				s.logger.WarnContext(ctx, "rename targets unknown variant, skipping",
					slog.String("variant_id", in.ID),
				)
				continue
			}
			final[idx].Name = strings.TrimSpace(in.Name)

		case domain.VariantOpReplaceImage:
			idx := variantIndex(final, in.ID)
			if idx < 0 {
				s.logger.WarnContext(ctx, "image replacement targets unknown variant, skipping",
					slog.String("variant_id", in.ID),
				)
				continue
			}

			// Upload the new image before the old one is queued for
			// deletion, so a failed upload leaves the variant untouched.
			result, err := s.store.Upload(ctx, uploadInput(in.File))
			if err != nil {
				if s.uploadStrict {
					return nil, nil, uploaded, apperrors.UploadFailed(err)
				}
				s.logger.WarnContext(ctx, "skipping variant image replacement after failed upload",
					slog.String("variant_id", in.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			uploaded = append(uploaded, result.URL)

			oldURL := final[idx].Image.URL
			final[idx].Image = domain.ImageRef{
				ID:  uuid.New().String(),
				URL: result.URL,
			}
			deferDelete = append(deferDelete, oldURL)

		case domain.VariantOpAdd:
			result, err := s.store.Upload(ctx, uploadInput(in.File))
			if err != nil {
				if s.uploadStrict {
					return nil, nil, uploaded, apperrors.UploadFailed(err)
				}
				s.logger.WarnContext(ctx, "skipping variant addition after failed upload",
					slog.String("name", in.Name),
					slog.String("error", err.Error()),
				)
				continue
			}
			uploaded = append(uploaded, result.URL)

			final = append(final, domain.ColorVariant{
				ID:   uuid.New().String(),
				Name: strings.TrimSpace(in.Name),
				Image: domain.ImageRef{
					ID:  uuid.New().String(),
					URL: result.URL,
				},
			})
		}
	}

	return final, deferDelete, uploaded, nil
}

func variantIndex(variants []domain.ColorVariant, id string) int {
	for i := range variants {
		if variants[i].ID == id {
			return i
		}
	}
	return -1
}
