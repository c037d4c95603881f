package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/repository/dao"
)

var (
	ErrLocationNotFound = dao.ErrLocationNotFound
	ErrLocationInUse    = dao.ErrLocationInUse
)

type LocationDAO interface {
	Insert(ctx context.Context, location dao.Location) (dao.Location, error)
	FindAll(ctx context.Context) ([]dao.Location, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.Location, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any, address *dao.Address) (dao.Location, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type LocationRepository struct {
	dao LocationDAO
}

func NewLocationRepository(dao LocationDAO) *LocationRepository {
	return &LocationRepository{
		dao: dao,
	}
}

func (r *LocationRepository) Create(ctx context.Context, location domain.Location) (domain.Location, error) {
	l := dao.Location{
		Name:     location.Name,
		Capacity: location.Capacity,
	}
	if location.Address != nil {
		a := addressDomainToDAO(*location.Address)
		a.UserID = nil
		l.Address = &a
	}

	created, err := r.dao.Insert(ctx, l)
	if err != nil {
		return domain.Location{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return locationDAOToDomain(created), nil
}

func (r *LocationRepository) FindAll(ctx context.Context) ([]domain.Location, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	locations := make([]domain.Location, 0, len(found))
	for _, l := range found {
		locations = append(locations, locationDAOToDomain(l))
	}

	return locations, nil
}

func (r *LocationRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Location, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Location{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return locationDAOToDomain(found), nil
}

func (r *LocationRepository) Update(ctx context.Context, id uuid.UUID, patch domain.LocationPatch) (domain.Location, error) {
	fields := make(map[string]any)
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Capacity != nil {
		fields["capacity"] = *patch.Capacity
	}

	var address *dao.Address
	if patch.Address != nil {
		a := addressDomainToDAO(*patch.Address)
		a.UserID = nil
		address = &a
	}

	updated, err := r.dao.Update(ctx, id, fields, address)
	if err != nil {
		return domain.Location{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return locationDAOToDomain(updated), nil
}

func (r *LocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func locationDAOToDomain(l dao.Location) domain.Location {
	location := domain.Location{
		ID:        l.ID,
		Name:      l.Name,
		Capacity:  l.Capacity,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
	if l.Address != nil {
		a := addressDAOToDomain(*l.Address)
		location.Address = &a
	}

	return location
}
