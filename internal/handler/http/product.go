package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
	"github.com/yogeshdgrg/BR-Dashboard/internal/repository"
	"github.com/yogeshdgrg/BR-Dashboard/internal/service"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/httputil"
)

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Response envelopes ---

type productResponse struct {
	httputil.Response
	Product *domain.Product `json:"product,omitempty"`
}

type productListResponse struct {
	httputil.Response
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PerPage  int              `json:"per_page"`
}

// --- Handlers ---

// ListProducts handles GET /api/v1/products with optional category,
// isFeatured, page, and per_page query parameters.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := repository.ProductFilter{
		Page:    1,
		PerPage: 20,
	}

	if v := r.URL.Query().Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Success: false,
				Message: "page must be a valid positive integer",
				Error:   "page must be a valid positive integer",
			})
			return
		}
		filter.Page = page
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > 100 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Success: false,
				Message: "per_page must be a valid integer between 1 and 100",
				Error:   "per_page must be a valid integer between 1 and 100",
			})
			return
		}
		filter.PerPage = perPage
	}
	if v := r.URL.Query().Get("category"); v != "" {
		filter.Category = &v
	}
	if v := r.URL.Query().Get("isFeatured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Success: false,
				Message: "isFeatured must be a boolean",
				Error:   "isFeatured must be a boolean",
			})
			return
		}
		filter.IsFeatured = &featured
	}

	products, total, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, productListResponse{
		Response: httputil.Response{Success: true, Message: "products fetched successfully"},
		Products: products,
		Total:    total,
		Page:     filter.Page,
		PerPage:  filter.PerPage,
	})
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, productResponse{
		Response: httputil.Response{Success: true, Message: "product fetched successfully"},
		Product:  product,
	})
}

// CreateProduct handles POST /api/v1/products (multipart/form-data).
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	files := &formFiles{}
	defer files.Close()

	input, err := parseCreateProductForm(r, files)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, productResponse{
		Response: httputil.Response{Success: true, Message: "product created successfully"},
		Product:  product,
	})
}

// UpdateProduct handles PUT /api/v1/products/{id} (multipart/form-data). The
// request is a partial edit: absent fields stay unchanged, image additions
// and deletions plus color-variant instructions are reconciled against the
// stored document.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	files := &formFiles{}
	defer files.Close()

	input, err := parseUpdateProductForm(r, files)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, productResponse{
		Response: httputil.Response{Success: true, Message: "product updated successfully"},
		Product:  product,
	})
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Success: true,
		Message: "product deleted successfully",
	})
}

// DeleteColorVariant handles DELETE /api/v1/products/{id}/colors/{colorId}.
func (h *ProductHandler) DeleteColorVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	colorID := chi.URLParam(r, "colorId")

	product, err := h.service.DeleteColorVariant(r.Context(), id.String(), colorID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, productResponse{
		Response: httputil.Response{Success: true, Message: "color variant deleted successfully"},
		Product:  product,
	})
}
