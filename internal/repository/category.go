package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/repository/dao"
)

var (
	ErrCategoryNotFound       = dao.ErrCategoryNotFound
	ErrParentCategoryNotFound = dao.ErrParentCategoryNotFound
	ErrCategoryHasChildren    = dao.ErrCategoryHasChildren
)

type CategoryDAO interface {
	Insert(ctx context.Context, category dao.Category) (dao.Category, error)
	FindAll(ctx context.Context) ([]dao.Category, error)
	FindAllFlat(ctx context.Context) ([]dao.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.Category, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (dao.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CategoryRepository struct {
	dao CategoryDAO
}

func NewCategoryRepository(dao CategoryDAO) *CategoryRepository {
	return &CategoryRepository{
		dao: dao,
	}
}

func (r *CategoryRepository) Create(ctx context.Context, category domain.Category) (domain.Category, error) {
	created, err := r.dao.Insert(ctx, dao.Category{
		Name:        category.Name,
		Description: category.Description,
		ParentID:    category.ParentID,
	})
	if err != nil {
		return domain.Category{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return categoryDAOToDomain(created), nil
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]domain.Category, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	return categoriesDAOToDomain(found), nil
}

func (r *CategoryRepository) FindAllFlat(ctx context.Context) ([]domain.Category, error) {
	found, err := r.dao.FindAllFlat(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAllFlat -> %w", err)
	}

	return categoriesDAOToDomain(found), nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Category, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Category{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return categoryDAOToDomain(found), nil
}

func (r *CategoryRepository) Update(ctx context.Context, id uuid.UUID, patch domain.CategoryPatch) (domain.Category, error) {
	fields := make(map[string]any)
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.ParentID != nil {
		if *patch.ParentID == uuid.Nil {
			fields["parent_id"] = (*uuid.UUID)(nil)
		} else {
			fields["parent_id"] = patch.ParentID
		}
	}

	updated, err := r.dao.Update(ctx, id, fields)
	if err != nil {
		return domain.Category{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return categoryDAOToDomain(updated), nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func categoriesDAOToDomain(found []dao.Category) []domain.Category {
	categories := make([]domain.Category, 0, len(found))
	for _, c := range found {
		categories = append(categories, categoryDAOToDomain(c))
	}

	return categories
}

func categoryDAOToDomain(c dao.Category) domain.Category {
	category := domain.Category{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		ParentID:    c.ParentID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}

	if c.Parent != nil {
		parent := categoryDAOToDomain(*c.Parent)
		category.Parent = &parent
	}
	for _, child := range c.Children {
		category.Children = append(category.Children, categoryDAOToDomain(child))
	}
	for _, p := range c.Products {
		category.Products = append(category.Products, productDAOToDomain(p))
	}

	return category
}
