package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
	"github.com/yogeshdgrg/BR-Dashboard/internal/service"
	apperrors "github.com/yogeshdgrg/BR-Dashboard/pkg/errors"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/httputil"
)

// BannerHandler handles HTTP requests for banner endpoints.
type BannerHandler struct {
	service *service.BannerService
	logger  *slog.Logger
}

// NewBannerHandler creates a new banner HTTP handler.
func NewBannerHandler(svc *service.BannerService, logger *slog.Logger) *BannerHandler {
	return &BannerHandler{
		service: svc,
		logger:  logger,
	}
}

type bannerResponse struct {
	httputil.Response
	Banner *domain.Banner `json:"banner,omitempty"`
}

type bannerListResponse struct {
	httputil.Response
	Banners []domain.Banner `json:"banners"`
}

// ListBanners handles GET /api/v1/banners. The active query parameter limits
// the result to active banners.
func (h *BannerHandler) ListBanners(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if v := r.URL.Query().Get("active"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("active must be a boolean"), h.logger)
			return
		}
		activeOnly = parsed
	}

	banners, err := h.service.ListBanners(r.Context(), activeOnly)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, bannerListResponse{
		Response: httputil.Response{Success: true, Message: "banners fetched successfully"},
		Banners:  banners,
	})
}

// CreateBanner handles POST /api/v1/banners (multipart/form-data with name,
// link, isActive fields and an image file part).
func (h *BannerHandler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	files := &formFiles{}
	defer files.Close()

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("request body must be multipart/form-data"), h.logger)
		return
	}

	input := &service.CreateBannerInput{
		Name:     r.FormValue("name"),
		Link:     r.FormValue("link"),
		IsActive: true,
	}
	if active, err := parseBoolField(r, "isActive"); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	} else if active != nil {
		input.IsActive = *active
	}

	if fh := formFile(r, "image"); fh != nil {
		upload, err := files.open(fh)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
			return
		}
		input.Image = upload
	}

	banner, err := h.service.CreateBanner(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, bannerResponse{
		Response: httputil.Response{Success: true, Message: "banner created successfully"},
		Banner:   banner,
	})
}

// UpdateBanner handles PUT /api/v1/banners/{id} (multipart/form-data).
func (h *BannerHandler) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	files := &formFiles{}
	defer files.Close()

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("request body must be multipart/form-data"), h.logger)
		return
	}

	input := &service.UpdateBannerInput{}
	if r.Form.Has("name") {
		v := r.FormValue("name")
		input.Name = &v
	}
	if r.Form.Has("link") {
		v := r.FormValue("link")
		input.Link = &v
	}
	active, err := parseBoolField(r, "isActive")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	input.IsActive = active

	if fh := formFile(r, "image"); fh != nil {
		upload, err := files.open(fh)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
			return
		}
		input.Image = upload
	}

	banner, err := h.service.UpdateBanner(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, bannerResponse{
		Response: httputil.Response{Success: true, Message: "banner updated successfully"},
		Banner:   banner,
	})
}

// DeleteBanner handles DELETE /api/v1/banners/{id}.
func (h *BannerHandler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteBanner(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Success: true,
		Message: "banner deleted successfully",
	})
}
