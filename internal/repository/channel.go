package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/repository/dao"
)

var (
	ErrChannelNotFound = dao.ErrChannelNotFound
	ErrChannelInUse    = dao.ErrChannelInUse
)

type ChannelDAO interface {
	Insert(ctx context.Context, channel dao.Channel) (dao.Channel, error)
	FindAll(ctx context.Context) ([]dao.Channel, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.Channel, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (dao.Channel, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ChannelRepository struct {
	dao ChannelDAO
}

func NewChannelRepository(dao ChannelDAO) *ChannelRepository {
	return &ChannelRepository{
		dao: dao,
	}
}

func (r *ChannelRepository) Create(ctx context.Context, channel domain.Channel) (domain.Channel, error) {
	created, err := r.dao.Insert(ctx, dao.Channel{
		Name:        channel.Name,
		Description: channel.Description,
	})
	if err != nil {
		return domain.Channel{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return channelDAOToDomain(created), nil
}

func (r *ChannelRepository) FindAll(ctx context.Context) ([]domain.Channel, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	channels := make([]domain.Channel, 0, len(found))
	for _, c := range found {
		channels = append(channels, channelDAOToDomain(c))
	}

	return channels, nil
}

func (r *ChannelRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Channel, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return channelDAOToDomain(found), nil
}

func (r *ChannelRepository) Update(ctx context.Context, id uuid.UUID, patch domain.ChannelPatch) (domain.Channel, error) {
	fields := make(map[string]any)
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}

	updated, err := r.dao.Update(ctx, id, fields)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return channelDAOToDomain(updated), nil
}

func (r *ChannelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func channelDAOToDomain(c dao.Channel) domain.Channel {
	return domain.Channel{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	}
}
