package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/repository/dao"
)

var (
	ErrProductNotFound      = dao.ErrProductNotFound
	ErrProductImageNotFound = dao.ErrProductImageNotFound
	ErrUnknownCategory      = dao.ErrUnknownCategory
)

type ProductDAO interface {
	Insert(ctx context.Context, product dao.Product, categoryIDs []uuid.UUID) (dao.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.Product, error)
	FindAll(ctx context.Context, q dao.ProductQuery) ([]dao.Product, int64, error)
	Update(ctx context.Context, id uuid.UUID, changes dao.ProductChanges) (dao.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductUpdate is the persisted part of a product edit. Images were already uploaded.
type ProductUpdate struct {
	Name           *string
	Description    *string
	Brand          *string
	Price          *decimal.Decimal
	CategoryIDs    []uuid.UUID
	SetCategories  bool
	DeleteImageIDs []uuid.UUID
	ImageFlags     []domain.ProductImage
	NewImages      []domain.ProductImage
}

type ProductRepository struct {
	dao ProductDAO
}

func NewProductRepository(dao ProductDAO) *ProductRepository {
	return &ProductRepository{
		dao: dao,
	}
}

// Create persists product with its images and links it to categoryIDs. A non-nil
// product.ID is kept so callers can derive storage keys before insert.
func (r *ProductRepository) Create(ctx context.Context, product domain.Product, categoryIDs []uuid.UUID) (domain.Product, error) {
	p := dao.Product{
		Base:        dao.Base{ID: product.ID},
		Name:        product.Name,
		Description: product.Description,
		Brand:       product.Brand,
		Price:       product.Price,
	}
	for _, img := range product.Images {
		p.Images = append(p.Images, imageDomainToDAO(img))
	}

	created, err := r.dao.Insert(ctx, p, categoryIDs)
	if err != nil {
		return domain.Product{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return productDAOToDomain(created), nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return productDAOToDomain(found), nil
}

func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	page := filter.Page.Normalize()

	found, total, err := r.dao.FindAll(ctx, dao.ProductQuery{
		Search:     filter.Search,
		CategoryID: filter.CategoryID,
		Pagination: dao.Pagination{Offset: page.Offset(), Limit: page.Limit},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	products := make([]domain.Product, 0, len(found))
	for _, p := range found {
		products = append(products, productDAOToDomain(p))
	}

	return products, total, nil
}

func (r *ProductRepository) Update(ctx context.Context, id uuid.UUID, u ProductUpdate) (domain.Product, error) {
	changes := dao.ProductChanges{
		Fields:            make(map[string]any),
		ReplaceCategories: u.SetCategories,
		CategoryIDs:       u.CategoryIDs,
		DeleteImageIDs:    u.DeleteImageIDs,
	}
	if u.Name != nil {
		changes.Fields["name"] = *u.Name
	}
	if u.Description != nil {
		changes.Fields["description"] = *u.Description
	}
	if u.Brand != nil {
		changes.Fields["brand"] = *u.Brand
	}
	if u.Price != nil {
		changes.Fields["price"] = *u.Price
	}
	for _, img := range u.ImageFlags {
		changes.ImageFlags = append(changes.ImageFlags, imageDomainToDAO(img))
	}
	for _, img := range u.NewImages {
		changes.NewImages = append(changes.NewImages, imageDomainToDAO(img))
	}

	updated, err := r.dao.Update(ctx, id, changes)
	if err != nil {
		return domain.Product{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return productDAOToDomain(updated), nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func productDAOToDomain(p dao.Product) domain.Product {
	product := domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		Price:       p.Price,
		Images:      make([]domain.ProductImage, 0, len(p.Images)),
		Categories:  make([]domain.Category, 0, len(p.Categories)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for _, img := range p.Images {
		product.Images = append(product.Images, domain.ProductImage{
			ID:          img.ID,
			URL:         img.URL,
			IsPrimary:   img.IsPrimary,
			IsListImage: img.IsListImage,
			ProductID:   img.ProductID,
		})
	}
	for _, c := range p.Categories {
		product.Categories = append(product.Categories, categoryDAOToDomain(c))
	}

	return product
}

func imageDomainToDAO(img domain.ProductImage) dao.ProductImage {
	return dao.ProductImage{
		Base:        dao.Base{ID: img.ID},
		URL:         img.URL,
		IsPrimary:   img.IsPrimary,
		IsListImage: img.IsListImage,
		ProductID:   img.ProductID,
	}
}
