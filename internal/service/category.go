package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/repository"
)

var (
	ErrCategoryNotFound       = repository.ErrCategoryNotFound
	ErrParentCategoryNotFound = repository.ErrParentCategoryNotFound
	ErrCategoryHasChildren    = repository.ErrCategoryHasChildren
	ErrCategoryOwnParent      = errors.New("a category cannot be its own parent")
	ErrCategoryCycle          = errors.New("a category cannot be moved under one of its descendants")
)

type CategoryRepository interface {
	Create(ctx context.Context, category domain.Category) (domain.Category, error)
	FindAll(ctx context.Context) ([]domain.Category, error)
	FindAllFlat(ctx context.Context) ([]domain.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Category, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.CategoryPatch) (domain.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CategoryService struct {
	repo CategoryRepository
}

func NewCategoryService(repo CategoryRepository) *CategoryService {
	return &CategoryService{
		repo: repo,
	}
}

func (s *CategoryService) Create(ctx context.Context, category domain.Category) (domain.Category, error) {
	created, err := s.repo.Create(ctx, category)
	if err != nil {
		return domain.Category{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return categories, nil
}

func (s *CategoryService) Tree(ctx context.Context) ([]domain.Category, error) {
	flat, err := s.repo.FindAllFlat(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAllFlat -> %w", err)
	}

	return domain.BuildCategoryTree(flat), nil
}

func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (domain.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Category{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, patch domain.CategoryPatch) (domain.Category, error) {
	if patch.ParentID != nil && *patch.ParentID != uuid.Nil {
		if *patch.ParentID == id {
			return domain.Category{}, ErrCategoryOwnParent
		}

		if err := s.checkNotDescendant(ctx, id, *patch.ParentID); err != nil {
			return domain.Category{}, err
		}
	}

	category, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return domain.Category{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

// checkNotDescendant walks up from newParent and fails when it reaches id.
func (s *CategoryService) checkNotDescendant(ctx context.Context, id, newParent uuid.UUID) error {
	flat, err := s.repo.FindAllFlat(ctx)
	if err != nil {
		return fmt.Errorf("s.repo.FindAllFlat -> %w", err)
	}

	parents := make(map[uuid.UUID]*uuid.UUID, len(flat))
	for _, c := range flat {
		parents[c.ID] = c.ParentID
	}

	seen := make(map[uuid.UUID]bool)
	for cur := &newParent; cur != nil; cur = parents[*cur] {
		if *cur == id {
			return ErrCategoryCycle
		}
		if seen[*cur] {
			break
		}
		seen[*cur] = true
	}

	return nil
}
