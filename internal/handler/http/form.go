package http

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
	"github.com/yogeshdgrg/BR-Dashboard/internal/service"
	apperrors "github.com/yogeshdgrg/BR-Dashboard/pkg/errors"
)

// maxUploadMemory bounds the in-memory portion of a parsed multipart form;
// larger file parts spill to temp files.
const maxUploadMemory = 32 << 20

// colorEntry is one element of the "colors" JSON field in a multipart product
// request. An entry's id is either the ID of an existing variant or a
// client-chosen token for a new one; either way the variant's image file
// arrives in the file part named "color_image_<id>". The server resolves the
// entry against the stored variant list, so clients never need to know which
// ids already exist.
type colorEntry struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	HasNewImage bool   `json:"hasNewImage,omitempty"`
	Delete      bool   `json:"delete,omitempty"`
}

// formFiles tracks opened multipart files so the handler can close them after
// the service has consumed their streams.
type formFiles struct {
	closers []multipart.File
}

func (f *formFiles) open(fh *multipart.FileHeader) (*domain.FileUpload, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file %s: %w", fh.Filename, err)
	}
	f.closers = append(f.closers, file)
	return &domain.FileUpload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Data:        file,
	}, nil
}

func (f *formFiles) Close() {
	for _, c := range f.closers {
		_ = c.Close()
	}
}

// parseJSONField decodes a JSON-encoded form field into dst. A missing field
// leaves dst untouched and returns false.
func parseJSONField(r *http.Request, name string, dst any) (bool, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, apperrors.InvalidInput(fmt.Sprintf("field %q is not valid JSON: %v", name, err))
	}
	return true, nil
}

func parseBoolField(r *http.Request, name string) (*bool, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("field %q must be a boolean", name))
	}
	return &v, nil
}

// parseCreateProductForm converts a multipart create request into the service
// input. Schema violations reject the whole request.
func parseCreateProductForm(r *http.Request, files *formFiles) (*service.CreateProductInput, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, apperrors.InvalidInput("request body must be multipart/form-data")
	}

	input := &service.CreateProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
	}

	if _, err := parseJSONField(r, "sizes", &input.Sizes); err != nil {
		return nil, err
	}
	if _, err := parseJSONField(r, "feature", &input.Feature); err != nil {
		return nil, err
	}
	if featured, err := parseBoolField(r, "isFeatured"); err != nil {
		return nil, err
	} else if featured != nil {
		input.IsFeatured = *featured
	}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			upload, err := files.open(fh)
			if err != nil {
				return nil, apperrors.InvalidInput(err.Error())
			}
			input.Images = append(input.Images, upload)
		}
	}

	var entries []colorEntry
	if _, err := parseJSONField(r, "colors", &entries); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		color := service.NewColorInput{Name: entry.Name}
		if fh := formFile(r, "color_image_"+entry.ID); fh != nil {
			upload, err := files.open(fh)
			if err != nil {
				return nil, apperrors.InvalidInput(err.Error())
			}
			color.File = upload
		}
		input.Colors = append(input.Colors, color)
	}

	return input, nil
}

// parseUpdateProductForm converts a multipart edit request into the service
// input. Scalar fields are optional; absent fields stay unchanged. Schema
// violations (malformed JSON, bad booleans) reject the whole request before
// any upload happens.
func parseUpdateProductForm(r *http.Request, files *formFiles) (*service.UpdateProductInput, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, apperrors.InvalidInput("request body must be multipart/form-data")
	}

	input := &service.UpdateProductInput{}

	if r.Form.Has("name") {
		v := r.FormValue("name")
		if v == "" {
			return nil, apperrors.InvalidInput("product name must not be empty")
		}
		input.Name = &v
	}
	if r.Form.Has("description") {
		v := r.FormValue("description")
		input.Description = &v
	}
	if r.Form.Has("category") {
		v := r.FormValue("category")
		input.Category = &v
	}

	var sizes []string
	if ok, err := parseJSONField(r, "sizes", &sizes); err != nil {
		return nil, err
	} else if ok {
		input.Sizes = &sizes
	}

	var feature []string
	if ok, err := parseJSONField(r, "feature", &feature); err != nil {
		return nil, err
	} else if ok {
		input.Feature = &feature
	}

	featured, err := parseBoolField(r, "isFeatured")
	if err != nil {
		return nil, err
	}
	input.IsFeatured = featured

	if _, err := parseJSONField(r, "imagesToDelete", &input.DeleteImageIDs); err != nil {
		return nil, err
	}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["additionalImages"] {
			upload, err := files.open(fh)
			if err != nil {
				return nil, apperrors.InvalidInput(err.Error())
			}
			input.AddImages = append(input.AddImages, upload)
		}
	}

	var entries []colorEntry
	if _, err := parseJSONField(r, "colors", &entries); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		edit := domain.VariantEdit{
			ID:          entry.ID,
			Name:        entry.Name,
			HasNewImage: entry.HasNewImage,
			Delete:      entry.Delete,
		}
		if fh := formFile(r, "color_image_"+entry.ID); fh != nil {
			upload, err := files.open(fh)
			if err != nil {
				return nil, apperrors.InvalidInput(err.Error())
			}
			edit.File = upload
			edit.HasNewImage = true
		}
		input.Variants = append(input.Variants, edit)
	}

	return input, nil
}

func formFile(r *http.Request, name string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if headers := r.MultipartForm.File[name]; len(headers) > 0 {
		return headers[0]
	}
	return nil
}
