package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
	apperrors "github.com/yogeshdgrg/BR-Dashboard/pkg/errors"
)

// uploadImages pushes the given files to the object store and returns the
// resulting image refs in request order. uploaded collects every URL that
// made it to the store, including ones later skipped, so callers can roll
// back an aborted request.
//
// In lenient mode a failed upload skips that file; in strict mode it aborts.
func (s *ProductService) uploadImages(ctx context.Context, files []*domain.FileUpload) (refs []domain.ImageRef, uploaded []string, err error) {
	for _, f := range files {
		if f == nil {
			continue
		}
		result, err := s.store.Upload(ctx, uploadInput(f))
		if err != nil {
			if s.uploadStrict {
				return nil, uploaded, apperrors.UploadFailed(err)
			}
			s.logger.WarnContext(ctx, "skipping failed image upload",
				slog.String("file", f.FileName),
				slog.String("error", err.Error()),
			)
			continue
		}
		uploaded = append(uploaded, result.URL)
		refs = append(refs, domain.ImageRef{
			ID:  uuid.New().String(),
			URL: result.URL,
		})
	}
	return refs, uploaded, nil
}

// reconcileImages computes the product's new image list from an edit request:
// existing images minus the requested deletions, in their original order,
// with freshly uploaded additions appended in request order.
//
// It returns the URLs of removed images for deferred store deletion; nothing
// is deleted from the store here, because the deletions must not happen
// before the edited document is persisted.
func (s *ProductService) reconcileImages(
	ctx context.Context,
	existing []domain.ImageRef,
	adds []*domain.FileUpload,
	deleteIDs []string,
) (final []domain.ImageRef, deferDelete []string, uploaded []string, err error) {
	kept, removed := domain.PartitionImages(existing, deleteIDs)

	added, uploaded, err := s.uploadImages(ctx, adds)
	if err != nil {
		return nil, nil, uploaded, err
	}

	final = make([]domain.ImageRef, 0, len(kept)+len(added))
	final = append(final, kept...)
	final = append(final, added...)

	for _, img := range removed {
		deferDelete = append(deferDelete, img.URL)
	}

	return final, deferDelete, uploaded, nil
}
