package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/repository"
)

var (
	ErrChannelNotFound = repository.ErrChannelNotFound
	ErrChannelInUse    = repository.ErrChannelInUse
)

type ChannelRepository interface {
	Create(ctx context.Context, channel domain.Channel) (domain.Channel, error)
	FindAll(ctx context.Context) ([]domain.Channel, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Channel, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.ChannelPatch) (domain.Channel, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ChannelService struct {
	repo ChannelRepository
}

func NewChannelService(repo ChannelRepository) *ChannelService {
	return &ChannelService{
		repo: repo,
	}
}

func (s *ChannelService) Create(ctx context.Context, channel domain.Channel) (domain.Channel, error) {
	created, err := s.repo.Create(ctx, channel)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *ChannelService) List(ctx context.Context) ([]domain.Channel, error) {
	channels, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return channels, nil
}

func (s *ChannelService) Get(ctx context.Context, id uuid.UUID) (domain.Channel, error) {
	channel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return channel, nil
}

func (s *ChannelService) Update(ctx context.Context, id uuid.UUID, patch domain.ChannelPatch) (domain.Channel, error) {
	channel, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return channel, nil
}

func (s *ChannelService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}
