package domain

import (
	"time"
)

// ImageRef is a reference to an image stored in the external object store.
// The ID is server-assigned and stable across edits; the URL points at the
// stored object and is the handle used for store deletions.
type ImageRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ColorVariant represents a named color of a product with its own image.
type ColorVariant struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Image ImageRef `json:"image"`
}

// Product represents a catalog product in the admin dashboard.
type Product struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Sizes       []string       `json:"sizes"`
	Feature     []string       `json:"feature"`
	IsFeatured  bool           `json:"isFeatured"`
	Images      []ImageRef     `json:"images"`
	Colors      []ColorVariant `json:"colors"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ColorByID returns the index of the color variant with the given ID, or -1.
func (p *Product) ColorByID(id string) int {
	for i := range p.Colors {
		if p.Colors[i].ID == id {
			return i
		}
	}
	return -1
}

// ImageByID returns the index of the product image with the given ID, or -1.
func (p *Product) ImageByID(id string) int {
	for i := range p.Images {
		if p.Images[i].ID == id {
			return i
		}
	}
	return -1
}
