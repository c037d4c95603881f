package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/repository/dao"
)

var (
	ErrInventoryNotFound        = dao.ErrInventoryNotFound
	ErrInventoryExists          = dao.ErrInventoryExists
	ErrInventoryVersionConflict = dao.ErrInventoryVersionConflict
	ErrNegativeStock            = dao.ErrNegativeStock
)

type InventoryDAO interface {
	Insert(ctx context.Context, inv dao.ProductInventory) (dao.ProductInventory, error)
	FindByKey(ctx context.Context, productID, locationID, channelID uuid.UUID) (dao.ProductInventory, error)
	FindAll(ctx context.Context, q dao.InventoryQuery) ([]dao.ProductInventory, int64, error)
	FindLogs(ctx context.Context, q dao.InventoryLogQuery) ([]dao.InventoryLog, int64, error)
	Mutate(ctx context.Context, productID, locationID, channelID uuid.UUID, fn dao.MutateFunc) (dao.ProductInventory, error)
}

// ApplyFunc receives the current row and returns the row with new balances together with
// the log entry describing the change.
type ApplyFunc func(inv domain.ProductInventory) (domain.ProductInventory, domain.InventoryLog, error)

type InventoryRepository struct {
	dao InventoryDAO
}

func NewInventoryRepository(dao InventoryDAO) *InventoryRepository {
	return &InventoryRepository{
		dao: dao,
	}
}

func (r *InventoryRepository) Create(ctx context.Context, inv domain.ProductInventory) (domain.ProductInventory, error) {
	created, err := r.dao.Insert(ctx, dao.ProductInventory{
		ProductID:      inv.ProductID,
		LocationID:     inv.LocationID,
		ChannelID:      inv.ChannelID,
		AvailableStock: inv.AvailableStock,
		ReservedStock:  inv.ReservedStock,
	})
	if err != nil {
		return domain.ProductInventory{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return inventoryDAOToDomain(created), nil
}

func (r *InventoryRepository) FindByKey(ctx context.Context, key domain.InventoryKey) (domain.ProductInventory, error) {
	found, err := r.dao.FindByKey(ctx, key.ProductID, key.LocationID, key.ChannelID)
	if err != nil {
		return domain.ProductInventory{}, fmt.Errorf("r.dao.FindByKey -> %w", err)
	}

	return inventoryDAOToDomain(found), nil
}

func (r *InventoryRepository) FindAll(ctx context.Context, filter domain.InventoryFilter) ([]domain.ProductInventory, int64, error) {
	page := filter.Page.Normalize()

	found, total, err := r.dao.FindAll(ctx, dao.InventoryQuery{
		ProductName: filter.ProductName,
		LocationID:  filter.LocationID,
		ChannelID:   filter.ChannelID,
		Pagination:  dao.Pagination{Offset: page.Offset(), Limit: page.Limit},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	rows := make([]domain.ProductInventory, 0, len(found))
	for _, inv := range found {
		rows = append(rows, inventoryDAOToDomain(inv))
	}

	return rows, total, nil
}

func (r *InventoryRepository) FindLogs(ctx context.Context, filter domain.InventoryLogFilter) ([]domain.InventoryLog, int64, error) {
	page := filter.Page.Normalize()

	q := dao.InventoryLogQuery{
		ProductID:  filter.ProductID,
		UserID:     filter.UserID,
		ChannelID:  filter.ChannelID,
		Pagination: dao.Pagination{Offset: page.Offset(), Limit: page.Limit},
	}
	if filter.ChangeType != nil {
		ct := string(*filter.ChangeType)
		q.ChangeType = &ct
	}

	found, total, err := r.dao.FindLogs(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("r.dao.FindLogs -> %w", err)
	}

	logs := make([]domain.InventoryLog, 0, len(found))
	for _, l := range found {
		logs = append(logs, inventoryLogDAOToDomain(l))
	}

	return logs, total, nil
}

// Mutate runs apply against the row identified by key inside one transaction guarded by
// the row version.
func (r *InventoryRepository) Mutate(ctx context.Context, key domain.InventoryKey, apply ApplyFunc) (domain.ProductInventory, error) {
	updated, err := r.dao.Mutate(ctx, key.ProductID, key.LocationID, key.ChannelID,
		func(inv *dao.ProductInventory) (dao.InventoryLog, error) {
			next, entry, err := apply(inventoryDAOToDomain(*inv))
			if err != nil {
				return dao.InventoryLog{}, err
			}

			inv.AvailableStock = next.AvailableStock
			inv.ReservedStock = next.ReservedStock

			return dao.InventoryLog{
				ProductID:  entry.ProductID,
				ChannelID:  entry.ChannelID,
				UserID:     entry.UserID,
				ChangeType: string(entry.ChangeType),
				Quantity:   entry.Quantity,
				Reason:     entry.Reason,
			}, nil
		})
	if err != nil {
		return domain.ProductInventory{}, fmt.Errorf("r.dao.Mutate -> %w", err)
	}

	return inventoryDAOToDomain(updated), nil
}

func inventoryDAOToDomain(inv dao.ProductInventory) domain.ProductInventory {
	row := domain.ProductInventory{
		ID:             inv.ID,
		ProductID:      inv.ProductID,
		LocationID:     inv.LocationID,
		ChannelID:      inv.ChannelID,
		AvailableStock: inv.AvailableStock,
		ReservedStock:  inv.ReservedStock,
		Version:        inv.Version,
		LastUpdated:    inv.LastUpdated,
	}

	if inv.Product.ID != uuid.Nil {
		p := productDAOToDomain(inv.Product)
		row.Product = &p
	}
	if inv.Location.ID != uuid.Nil {
		l := locationDAOToDomain(inv.Location)
		row.Location = &l
	}
	if inv.Channel.ID != uuid.Nil {
		c := channelDAOToDomain(inv.Channel)
		row.Channel = &c
	}

	return row
}

func inventoryLogDAOToDomain(l dao.InventoryLog) domain.InventoryLog {
	return domain.InventoryLog{
		ID:         l.ID,
		ProductID:  l.ProductID,
		ChannelID:  l.ChannelID,
		UserID:     l.UserID,
		ChangeType: domain.ChangeType(l.ChangeType),
		Quantity:   l.Quantity,
		Reason:     l.Reason,
		Timestamp:  l.Timestamp,
	}
}
