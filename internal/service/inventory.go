package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/pkg/events"
	"github.com/meddist/internal-api/internal/pkg/lock"
	"github.com/meddist/internal-api/internal/pkg/metrics"
	"github.com/meddist/internal-api/internal/repository"
)

const defaultMutationRetries = 3

var (
	ErrInventoryNotFound         = repository.ErrInventoryNotFound
	ErrInventoryExists           = repository.ErrInventoryExists
	ErrNegativeStock             = repository.ErrNegativeStock
	ErrStockOverflow             = errors.New("quantity exceeds the maximum stock a record can hold")
	ErrInsufficientStock         = errors.New("insufficient stock for the operation")
	ErrInsufficientStockReserve  = errors.New("insufficient stock to reserve")
	ErrInsufficientReservedStock = errors.New("insufficient reserved stock to release")
	ErrInvalidQuantity           = errors.New("quantity must be greater than zero")
	ErrInvalidChangeType         = errors.New("changeType must be STOCK_IN or STOCK_OUT")
	ErrInventoryBusy             = errors.New("inventory record was modified concurrently, please retry")
)

type InventoryRepository interface {
	Create(ctx context.Context, inv domain.ProductInventory) (domain.ProductInventory, error)
	FindByKey(ctx context.Context, key domain.InventoryKey) (domain.ProductInventory, error)
	FindAll(ctx context.Context, filter domain.InventoryFilter) ([]domain.ProductInventory, int64, error)
	FindLogs(ctx context.Context, filter domain.InventoryLogFilter) ([]domain.InventoryLog, int64, error)
	Mutate(ctx context.Context, key domain.InventoryKey, apply repository.ApplyFunc) (domain.ProductInventory, error)
}

type InventoryService struct {
	repo       InventoryRepository
	locker     lock.Locker
	publisher  events.Publisher
	maxRetries int
}

func NewInventoryService(repo InventoryRepository, locker lock.Locker, publisher events.Publisher, maxRetries int) *InventoryService {
	if maxRetries < 1 {
		maxRetries = defaultMutationRetries
	}

	return &InventoryService{
		repo:       repo,
		locker:     locker,
		publisher:  publisher,
		maxRetries: maxRetries,
	}
}

func (s *InventoryService) Create(ctx context.Context, inv domain.ProductInventory) (domain.ProductInventory, error) {
	created, err := s.repo.Create(ctx, inv)
	if err != nil {
		return domain.ProductInventory{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *InventoryService) Find(ctx context.Context, key domain.InventoryKey) (domain.ProductInventory, error) {
	inv, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return domain.ProductInventory{}, fmt.Errorf("s.repo.FindByKey -> %w", err)
	}

	return inv, nil
}

func (s *InventoryService) List(ctx context.Context, filter domain.InventoryFilter) (domain.Paged[domain.ProductInventory], error) {
	rows, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return domain.Paged[domain.ProductInventory]{}, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return domain.Paged[domain.ProductInventory]{Data: rows, Total: total}, nil
}

func (s *InventoryService) Logs(ctx context.Context, filter domain.InventoryLogFilter) (domain.Paged[domain.InventoryLog], error) {
	logs, total, err := s.repo.FindLogs(ctx, filter)
	if err != nil {
		return domain.Paged[domain.InventoryLog]{}, fmt.Errorf("s.repo.FindLogs -> %w", err)
	}

	return domain.Paged[domain.InventoryLog]{Data: logs, Total: total}, nil
}

// UpdateStock applies a STOCK_IN or STOCK_OUT movement.
func (s *InventoryService) UpdateStock(ctx context.Context, change domain.InventoryChange) (domain.ProductInventory, error) {
	if change.ChangeType != domain.ChangeStockIn && change.ChangeType != domain.ChangeStockOut {
		return domain.ProductInventory{}, ErrInvalidChangeType
	}

	return s.mutate(ctx, change)
}

// Reserve moves quantity from available to reserved stock for transactionID.
func (s *InventoryService) Reserve(ctx context.Context, key domain.InventoryKey, quantity int, transactionID string, userID *uuid.UUID) (domain.ProductInventory, error) {
	return s.mutate(ctx, transactionChange(key, domain.ChangeReserve, quantity, transactionID, userID))
}

// Release moves quantity from reserved back to available stock for transactionID.
func (s *InventoryService) Release(ctx context.Context, key domain.InventoryKey, quantity int, transactionID string, userID *uuid.UUID) (domain.ProductInventory, error) {
	return s.mutate(ctx, transactionChange(key, domain.ChangeRelease, quantity, transactionID, userID))
}

func (s *InventoryService) mutate(ctx context.Context, change domain.InventoryChange) (domain.ProductInventory, error) {
	if change.Quantity <= 0 {
		return domain.ProductInventory{}, ErrInvalidQuantity
	}

	ctx, span := otel.Tracer("inventory").Start(ctx, "InventoryService.mutate")
	defer span.End()
	span.SetAttributes(
		attribute.String("inventory.product_id", change.Key.ProductID.String()),
		attribute.String("inventory.change_type", string(change.ChangeType)),
		attribute.Int("inventory.quantity", change.Quantity),
	)

	inv, err := s.mutateLocked(ctx, change)
	if err != nil {
		metrics.InventoryMutations.WithLabelValues(string(change.ChangeType), outcome(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return domain.ProductInventory{}, err
	}
	metrics.InventoryMutations.WithLabelValues(string(change.ChangeType), "ok").Inc()

	event := domain.InventoryChanged{
		InventoryKey:   inv.Key(),
		ChangeType:     change.ChangeType,
		Quantity:       change.Quantity,
		AvailableStock: inv.AvailableStock,
		ReservedStock:  inv.ReservedStock,
		Version:        inv.Version,
		UserID:         change.UserID,
		OccurredAt:     inv.LastUpdated,
	}
	if err = s.publisher.PublishInventoryChanged(ctx, event); err != nil {
		zap.L().Error("failed to publish inventory event",
			zap.Stringer("product_id", inv.ProductID),
			zap.Int("version", inv.Version),
			zap.Error(err),
		)
	}

	return inv, nil
}

func (s *InventoryService) mutateLocked(ctx context.Context, change domain.InventoryChange) (domain.ProductInventory, error) {
	unlock, err := s.locker.Lock(ctx, change.Key.LockName())
	if err != nil {
		return domain.ProductInventory{}, fmt.Errorf("%w: %w", ErrInventoryBusy, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			zap.L().Warn("failed to release inventory lock", zap.String("lock", change.Key.LockName()), zap.Error(err))
		}
	}()

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		inv, err := s.repo.Mutate(ctx, change.Key, func(current domain.ProductInventory) (domain.ProductInventory, domain.InventoryLog, error) {
			return applyChange(current, change)
		})
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, repository.ErrInventoryVersionConflict) {
			return domain.ProductInventory{}, fmt.Errorf("s.repo.Mutate -> %w", err)
		}

		metrics.InventoryConflicts.Inc()
		zap.L().Debug("inventory version conflict", zap.String("lock", change.Key.LockName()), zap.Int("attempt", attempt))
	}

	return domain.ProductInventory{}, ErrInventoryBusy
}

// applyChange enforces the balance rule of change against inv.
func applyChange(inv domain.ProductInventory, change domain.InventoryChange) (domain.ProductInventory, domain.InventoryLog, error) {
	q := change.Quantity

	switch change.ChangeType {
	case domain.ChangeStockIn:
		if overflows(inv.AvailableStock, q) {
			return inv, domain.InventoryLog{}, ErrStockOverflow
		}
		inv.AvailableStock += q
	case domain.ChangeStockOut:
		if inv.AvailableStock < q {
			return inv, domain.InventoryLog{}, ErrInsufficientStock
		}
		inv.AvailableStock -= q
	case domain.ChangeReserve:
		if inv.AvailableStock < q {
			return inv, domain.InventoryLog{}, ErrInsufficientStockReserve
		}
		if overflows(inv.ReservedStock, q) {
			return inv, domain.InventoryLog{}, ErrStockOverflow
		}
		inv.AvailableStock -= q
		inv.ReservedStock += q
	case domain.ChangeRelease:
		if inv.ReservedStock < q {
			return inv, domain.InventoryLog{}, ErrInsufficientReservedStock
		}
		if overflows(inv.AvailableStock, q) {
			return inv, domain.InventoryLog{}, ErrStockOverflow
		}
		inv.ReservedStock -= q
		inv.AvailableStock += q
	default:
		return inv, domain.InventoryLog{}, ErrInvalidChangeType
	}

	channelID := change.Key.ChannelID

	return inv, domain.InventoryLog{
		ProductID:  change.Key.ProductID,
		ChannelID:  &channelID,
		UserID:     change.UserID,
		ChangeType: change.ChangeType,
		Quantity:   q,
		Reason:     change.Reason,
	}, nil
}

func overflows(balance, q int) bool {
	return q > math.MaxInt-balance
}

func transactionChange(key domain.InventoryKey, ct domain.ChangeType, quantity int, transactionID string, userID *uuid.UUID) domain.InventoryChange {
	reason := "Transaction: " + transactionID

	return domain.InventoryChange{
		Key:        key,
		ChangeType: ct,
		Quantity:   quantity,
		Reason:     &reason,
		UserID:     userID,
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInsufficientStockReserve),
		errors.Is(err, ErrInsufficientReservedStock):
		return "insufficient"
	case errors.Is(err, ErrStockOverflow), errors.Is(err, ErrNegativeStock):
		return "rejected"
	case errors.Is(err, ErrInventoryBusy):
		return "conflict"
	case errors.Is(err, ErrInventoryNotFound):
		return "not_found"
	}

	return "error"
}
