package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/repository"
)

var (
	ErrLocationNotFound = repository.ErrLocationNotFound
	ErrLocationInUse    = repository.ErrLocationInUse
)

type LocationRepository interface {
	Create(ctx context.Context, location domain.Location) (domain.Location, error)
	FindAll(ctx context.Context) ([]domain.Location, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Location, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.LocationPatch) (domain.Location, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type LocationService struct {
	repo LocationRepository
}

func NewLocationService(repo LocationRepository) *LocationService {
	return &LocationService{
		repo: repo,
	}
}

func (s *LocationService) Create(ctx context.Context, location domain.Location) (domain.Location, error) {
	created, err := s.repo.Create(ctx, location)
	if err != nil {
		return domain.Location{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *LocationService) List(ctx context.Context) ([]domain.Location, error) {
	locations, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return locations, nil
}

func (s *LocationService) Get(ctx context.Context, id uuid.UUID) (domain.Location, error) {
	location, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Location{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return location, nil
}

func (s *LocationService) Update(ctx context.Context, id uuid.UUID, patch domain.LocationPatch) (domain.Location, error) {
	location, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return domain.Location{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return location, nil
}

func (s *LocationService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}
