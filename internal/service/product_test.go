package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
	"github.com/yogeshdgrg/BR-Dashboard/internal/repository"
	"github.com/yogeshdgrg/BR-Dashboard/internal/storage"
	apperrors "github.com/yogeshdgrg/BR-Dashboard/pkg/errors"
)

// --- Mock Repository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Stub object store ---

// stubStore is a storage.Storage that mints deterministic URLs from file
// names and records every operation in order.
type stubStore struct {
	mu        sync.Mutex
	ops       []string // "upload:<filename>" / "delete:<url>"
	uploadErr map[string]error
	deleteErr error
}

func newStubStore() *stubStore {
	return &stubStore{uploadErr: make(map[string]error)}
}

func stubURL(fileName string) string {
	return "https://store.example.com/obj/" + fileName
}

func (s *stubStore) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.uploadErr[input.FileName]; err != nil {
		return nil, err
	}
	s.ops = append(s.ops, "upload:"+input.FileName)
	return &storage.UploadResult{PublicID: input.FileName, URL: stubURL(input.FileName)}, nil
}

func (s *stubStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.ops = append(s.ops, "delete:"+url)
	return nil
}

func (s *stubStore) Ping(_ context.Context) error { return nil }

func (s *stubStore) deletes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, op := range s.ops {
		if strings.HasPrefix(op, "delete:") {
			out = append(out, strings.TrimPrefix(op, "delete:"))
		}
	}
	return out
}

// --- Mock publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockPublisher) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockPublisher) PublishProductDeleted(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(repo *mockProductRepository, store storage.Storage, strict bool) *ProductService {
	return NewProductService(repo, store, nil, nil, newTestLogger(), strict)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func file(name string) *domain.FileUpload {
	return &domain.FileUpload{
		FileName:    name,
		ContentType: "image/jpeg",
		Size:        4,
		Data:        strings.NewReader("data"),
	}
}

// chairProduct builds the fixture used by the reconciliation tests: a product
// with three images and three color variants.
func chairProduct() *domain.Product {
	return &domain.Product{
		ID:          "prod-1",
		Name:        "Chair",
		Description: "Oak chair",
		Category:    "furniture",
		Sizes:       []string{"standard"},
		Images: []domain.ImageRef{
			{ID: "imgA", URL: "uA"},
			{ID: "imgB", URL: "uB"},
			{ID: "imgC", URL: "uC"},
		},
		Colors: []domain.ColorVariant{
			{ID: "colA", Name: "Walnut", Image: domain.ImageRef{ID: "ci1", URL: "u1"}},
			{ID: "colB", Name: "Ebony", Image: domain.ImageRef{ID: "ci2", URL: "u2"}},
			{ID: "colC", Name: "Ash", Image: domain.ImageRef{ID: "ci3", URL: "u3"}},
		},
	}
}

// --- CreateProduct ---

func TestCreateProduct_RequiresName(t *testing.T) {
	svc := newTestService(&mockProductRepository{}, newStubStore(), false)

	_, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Images: []*domain.FileUpload{file("a.jpg")},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateProduct_RequiresDescription(t *testing.T) {
	svc := newTestService(&mockProductRepository{}, newStubStore(), false)

	_, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:     "Chair",
		Category: "furniture",
		Images:   []*domain.FileUpload{file("a.jpg")},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateProduct_RequiresCategory(t *testing.T) {
	svc := newTestService(&mockProductRepository{}, newStubStore(), false)

	_, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:        "Chair",
		Description: "Oak chair",
		Images:      []*domain.FileUpload{file("a.jpg")},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateProduct_RequiresImage(t *testing.T) {
	svc := newTestService(&mockProductRepository{}, newStubStore(), false)

	_, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:        "Chair",
		Description: "Oak chair",
		Category:    "furniture",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateProduct_Success(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	product, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:        "Chair",
		Description: "Oak chair",
		Category:    "furniture",
		IsFeatured:  true,
		Images:     []*domain.FileUpload{file("a.jpg"), file("b.jpg")},
		Colors: []NewColorInput{
			{Name: "Walnut", File: file("walnut.jpg")},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	require.Len(t, product.Images, 2)
	assert.Equal(t, stubURL("a.jpg"), product.Images[0].URL)
	assert.Equal(t, stubURL("b.jpg"), product.Images[1].URL)
	require.Len(t, product.Colors, 1)
	assert.Equal(t, "Walnut", product.Colors[0].Name)
	assert.NotEmpty(t, product.Colors[0].ID)
	repo.AssertExpectations(t)
}

func TestCreateProduct_LenientSkipsFailedUploads(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	store.uploadErr["bad.jpg"] = errors.New("store down")
	svc := newTestService(repo, store, false)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	product, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:        "Chair",
		Description: "Oak chair",
		Category:    "furniture",
		Images:      []*domain.FileUpload{file("good.jpg"), file("bad.jpg")},
	})
	require.NoError(t, err)
	require.Len(t, product.Images, 1)
	assert.Equal(t, stubURL("good.jpg"), product.Images[0].URL)
}

func TestCreateProduct_StrictAbortsAndRollsBack(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	store.uploadErr["bad.jpg"] = errors.New("store down")
	svc := newTestService(repo, store, true)

	_, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:        "Chair",
		Description: "Oak chair",
		Category:    "furniture",
		Images:      []*domain.FileUpload{file("good.jpg"), file("bad.jpg")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUploadFailed)
	// The upload that succeeded before the failure is rolled back.
	assert.Equal(t, []string{stubURL("good.jpg")}, store.deletes())
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_PersistFailureRollsBackUploads(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:        "Chair",
		Description: "Oak chair",
		Category:    "furniture",
		Images:      []*domain.FileUpload{file("a.jpg")},
	})
	require.Error(t, err)
	assert.Equal(t, []string{stubURL("a.jpg")}, store.deletes())
}

// --- UpdateProduct: scalar merge semantics ---

func TestUpdateProduct_MergesOnlyProvidedFields(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	current := chairProduct()
	repo.On("GetByID", mock.Anything, "prod-1").Return(current, nil)

	var persisted *domain.Product
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Product")).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(*domain.Product)
		}).
		Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Name:       strPtr("Lounge Chair"),
		IsFeatured: boolPtr(true),
	})
	require.NoError(t, err)

	assert.Equal(t, "Lounge Chair", updated.Name)
	assert.True(t, updated.IsFeatured)
	// Untouched fields carry over.
	assert.Equal(t, "Oak chair", updated.Description)
	assert.Equal(t, "furniture", updated.Category)
	assert.Equal(t, []string{"standard"}, updated.Sizes)
	assert.Len(t, updated.Images, 3)
	assert.Len(t, updated.Colors, 3)
	assert.Same(t, persisted, updated)
	assert.Empty(t, store.deletes())
}

func TestUpdateProduct_NotFound(t *testing.T) {
	repo := &mockProductRepository{}
	svc := newTestService(repo, newStubStore(), false)

	repo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := svc.UpdateProduct(context.Background(), "missing", &UpdateProductInput{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- UpdateProduct: image set reconciliation ---

func TestUpdateProduct_ImageDeleteAndAddPreservesOrder(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	// [A, B, C] minus B plus D gives [A, C, D].
	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		DeleteImageIDs: []string{"imgB"},
		AddImages:      []*domain.FileUpload{file("d.jpg")},
	})
	require.NoError(t, err)

	require.Len(t, updated.Images, 3)
	assert.Equal(t, "imgA", updated.Images[0].ID)
	assert.Equal(t, "imgC", updated.Images[1].ID)
	assert.Equal(t, stubURL("d.jpg"), updated.Images[2].URL)

	// The removed image is deleted from the store, after persist.
	assert.Equal(t, []string{"uB"}, store.deletes())
}

func TestUpdateProduct_UnknownDeleteIDIgnored(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		DeleteImageIDs: []string{"no-such-image"},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Images, 3)
	assert.Empty(t, store.deletes())
}

// --- UpdateProduct: variant reconciliation ---

func TestUpdateProduct_VariantDeleteRenameAddReplace(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)

	var persisted *domain.Product
	repo.On("Update", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			p := args.Get(1).(*domain.Product)
			persisted = p
			// At persist time nothing has been deleted from the store yet.
			assert.Empty(t, store.deletes())
		}).
		Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Variants: []domain.VariantEdit{
			{ID: "colB", Delete: true},
			{ID: "colC", Name: "Pale Ash"},
			{ID: "colA", Name: "Walnut", File: file("walnut-new.jpg")},
			{ID: "tmp-1", Name: "Cherry", File: file("cherry.jpg")},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, persisted)

	// Survivors keep their order, the addition lands at the end.
	require.Len(t, updated.Colors, 3)
	assert.Equal(t, "colA", updated.Colors[0].ID)
	assert.Equal(t, "Walnut", updated.Colors[0].Name)
	assert.Equal(t, stubURL("walnut-new.jpg"), updated.Colors[0].Image.URL)
	assert.Equal(t, "colC", updated.Colors[1].ID)
	assert.Equal(t, "Pale Ash", updated.Colors[1].Name)
	assert.Equal(t, "Cherry", updated.Colors[2].Name)
	// The added variant gets a server-assigned ID, not the request token.
	assert.NotEqual(t, "tmp-1", updated.Colors[2].ID)

	// Exactly two store deletes, both after persist: the deleted variant's
	// image and the replaced image.
	assert.ElementsMatch(t, []string{"u2", "u1"}, store.deletes())
}

func TestUpdateProduct_ReplaceUploadsBeforeDeleting(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Variants: []domain.VariantEdit{
			{ID: "colA", Name: "Walnut", File: file("new.jpg")},
		},
	})
	require.NoError(t, err)

	// Operation order: upload the replacement first, delete the old image
	// only afterwards.
	require.Len(t, store.ops, 2)
	assert.Equal(t, "upload:new.jpg", store.ops[0])
	assert.Equal(t, "delete:u1", store.ops[1])
}

func TestUpdateProduct_LenientSkipsInvalidInstruction(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	// An add without a name is invalid and skipped; the rest of the edit
	// still applies.
	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Variants: []domain.VariantEdit{
			{ID: "tmp-1", Name: "", File: file("x.jpg")},
			{ID: "colA", Name: "Dark Walnut"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Colors, 3)
	assert.Equal(t, "Dark Walnut", updated.Colors[0].Name)
}

func TestUpdateProduct_StrictRejectsInvalidInstruction(t *testing.T) {
	repo := &mockProductRepository{}
	svc := newTestService(repo, newStubStore(), true)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)

	_, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Variants: []domain.VariantEdit{
			{ID: "tmp-1", Name: "", File: file("x.jpg")},
		},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateProduct_UnknownVariantTargetSkipped(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	// An entry for an id that matches nothing is treated as an addition, and
	// an addition without a file fails its own validation; nothing changes.
	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Variants: []domain.VariantEdit{
			{ID: "ghost", Name: "Phantom"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, chairProduct().Colors, updated.Colors)
}

func TestUpdateProduct_DeleteAndRenameSameVariantInOneBatch(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	// A stale client view can delete and rename the same variant in one
	// request; the delete wins and the rename becomes a no-op.
	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Variants: []domain.VariantEdit{
			{ID: "colB", Delete: true},
			{ID: "colB", Name: "Jet Black"},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Colors, 2)
	assert.Equal(t, "colA", updated.Colors[0].ID)
	assert.Equal(t, "colC", updated.Colors[1].ID)
	assert.Equal(t, []string{"u2"}, store.deletes())
}

func TestUpdateProduct_HasNewImageWithoutFileSkipsReplacement(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Variants: []domain.VariantEdit{
			{ID: "colA", Name: "Dark Walnut", HasNewImage: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dark Walnut", updated.Colors[0].Name)
	// The flagged replacement had no file, so the old image stays.
	assert.Equal(t, "u1", updated.Colors[0].Image.URL)
	assert.Empty(t, store.ops)
}

func TestUpdateProduct_WhitespaceVariantNames(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Variants: []domain.VariantEdit{
			{ID: "tmp-1", Name: "   ", File: file("blank.jpg")},
			{ID: "colA", Name: "  Dark Walnut "},
		},
	})
	require.NoError(t, err)
	// The whitespace-named addition fails validation and is skipped before
	// anything is uploaded; the rename is stored trimmed.
	assert.Len(t, updated.Colors, 3)
	assert.Equal(t, "Dark Walnut", updated.Colors[0].Name)
	assert.Empty(t, store.ops)
}

func TestUpdateProduct_WhitespaceAddNameAbortsInStrictMode(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, true)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)

	_, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Variants: []domain.VariantEdit{
			{ID: "tmp-1", Name: "   ", File: file("blank.jpg")},
		},
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Empty(t, store.ops)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateProduct_CombinedImageAndVariantEdit(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	current := &domain.Product{
		ID:   "prod-1",
		Name: "Chair",
		Images: []domain.ImageRef{
			{ID: "img1", URL: "u1"},
		},
		Colors: []domain.ColorVariant{
			{ID: "col10", Name: "Red", Image: domain.ImageRef{ID: "ci1", URL: "r1"}},
		},
	}
	repo.On("GetByID", mock.Anything, "prod-1").Return(current, nil)
	repo.On("Update", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			assert.Empty(t, store.deletes())
		}).
		Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		DeleteImageIDs: []string{"img1"},
		AddImages:      []*domain.FileUpload{file("f2.jpg")},
		Variants: []domain.VariantEdit{
			{ID: "col10", Name: "Crimson"},
		},
	})
	require.NoError(t, err)

	require.Len(t, updated.Images, 1)
	assert.Equal(t, stubURL("f2.jpg"), updated.Images[0].URL)
	require.Len(t, updated.Colors, 1)
	assert.Equal(t, "col10", updated.Colors[0].ID)
	assert.Equal(t, "Crimson", updated.Colors[0].Name)
	assert.Equal(t, "r1", updated.Colors[0].Image.URL)
	// Exactly one store delete, issued after the persist succeeded.
	assert.Equal(t, []string{"u1"}, store.deletes())
}

func TestUpdateProduct_PersistFailureIssuesNoDeletes(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		DeleteImageIDs: []string{"imgB"},
		AddImages:      []*domain.FileUpload{file("d.jpg")},
		Variants: []domain.VariantEdit{
			{ID: "colB", Delete: true},
		},
	})
	require.Error(t, err)

	// The still-referenced objects (uB, u2) must not be deleted, and the
	// fresh upload is left in place rather than racing a retry.
	assert.Empty(t, store.deletes())
}

func TestUpdateProduct_StrictUploadFailureRollsBackEarlierUploads(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	store.uploadErr["bad.jpg"] = errors.New("store down")
	svc := newTestService(repo, store, true)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)

	_, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		AddImages: []*domain.FileUpload{file("good.jpg")},
		Variants: []domain.VariantEdit{
			{ID: "tmp-1", Name: "Cherry", File: file("bad.jpg")},
		},
	})
	require.ErrorIs(t, err, apperrors.ErrUploadFailed)
	assert.Equal(t, []string{stubURL("good.jpg")}, store.deletes())
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// --- DeleteColorVariant ---

func TestDeleteColorVariant_Success(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.DeleteColorVariant(context.Background(), "prod-1", "colB")
	require.NoError(t, err)
	require.Len(t, updated.Colors, 2)
	assert.Equal(t, "colA", updated.Colors[0].ID)
	assert.Equal(t, "colC", updated.Colors[1].ID)
	assert.Equal(t, []string{"u2"}, store.deletes())
}

func TestDeleteColorVariant_UnknownVariant(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)

	_, err := svc.DeleteColorVariant(context.Background(), "prod-1", "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Empty(t, store.deletes())
}

// --- DeleteProduct ---

func TestDeleteProduct_RemovesAllStoredImages(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	svc := newTestService(repo, store, false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Delete", mock.Anything, "prod-1").Return(nil)

	err := svc.DeleteProduct(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"uA", "uB", "uC", "u1", "u2", "u3"}, store.deletes())
}

func TestDeleteProduct_StoreFailureDoesNotFailOperation(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	store.deleteErr = errors.New("store down")
	svc := newTestService(repo, store, false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Delete", mock.Anything, "prod-1").Return(nil)

	// Object store cleanup is best-effort.
	assert.NoError(t, svc.DeleteProduct(context.Background(), "prod-1"))
}

// --- Events ---

func TestUpdateProduct_PublishesUpdatedEvent(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	pub := &mockPublisher{}
	svc := NewProductService(repo, store, nil, pub, newTestLogger(), false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	pub.On("PublishProductUpdated", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	_, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Name: strPtr("Renamed"),
	})
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestUpdateProduct_PublishFailureDoesNotFailOperation(t *testing.T) {
	repo := &mockProductRepository{}
	store := newStubStore()
	pub := &mockPublisher{}
	svc := NewProductService(repo, store, nil, pub, newTestLogger(), false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	pub.On("PublishProductUpdated", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	_, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Name: strPtr("Renamed"),
	})
	assert.NoError(t, err)
}

// --- Cache ---

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]*domain.Product
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*domain.Product)}
}

func (c *fakeCache) Get(_ context.Context, id string) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[id], nil
}

func (c *fakeCache) Set(_ context.Context, p *domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.ID] = p
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

func TestGetProduct_CacheHitSkipsRepository(t *testing.T) {
	repo := &mockProductRepository{}
	cache := newFakeCache()
	svc := NewProductService(repo, newStubStore(), cache, nil, newTestLogger(), false)

	cached := chairProduct()
	require.NoError(t, cache.Set(context.Background(), cached))

	got, err := svc.GetProduct(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, cached, got)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUpdateProduct_InvalidatesCache(t *testing.T) {
	repo := &mockProductRepository{}
	cache := newFakeCache()
	svc := NewProductService(repo, newStubStore(), cache, nil, newTestLogger(), false)

	repo.On("GetByID", mock.Anything, "prod-1").Return(chairProduct(), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Name: strPtr("Renamed"),
	})
	require.NoError(t, err)
	assert.Contains(t, cache.invalidated, "prod-1")
}
