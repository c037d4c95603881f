package domain

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Brand       string          `json:"brand"`
	Price       decimal.Decimal `json:"price"`
	Images      []ProductImage  `json:"images"`
	Categories  []Category      `json:"categories"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type ProductImage struct {
	ID          uuid.UUID `json:"id"`
	URL         string    `json:"url"`
	IsPrimary   bool      `json:"isPrimary"`
	IsListImage bool      `json:"isListImage"`
	ProductID   uuid.UUID `json:"productId"`
}

// ImageMetadata describes an image in a product form. Entries with an ID refer to
// images that already exist; entries with a Position describe the uploaded file at
// that index.
type ImageMetadata struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	URL         *string    `json:"url,omitempty"`
	IsPrimary   bool       `json:"isPrimary"`
	IsListImage bool       `json:"isListImage"`
	Position    *int       `json:"position,omitempty"`
}

// ImageUpload is a file received with a product form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadSeekCloser, error)
}

type ProductInput struct {
	Name          *string
	Description   *string
	Brand         *string
	Price         *decimal.Decimal
	CategoryIDs   []uuid.UUID
	HasCategories bool
	Metadata      []ImageMetadata
	HasMetadata   bool
	Images        []ImageUpload
}

type ProductFilter struct {
	Search     string
	CategoryID *uuid.UUID
	Page       Page
}

type ProductList struct {
	Products   []Product `json:"products"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}
