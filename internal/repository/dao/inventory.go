package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInventoryNotFound        = errors.New("inventory record not found")
	ErrInventoryExists          = errors.New("inventory record already exists")
	ErrInventoryVersionConflict = errors.New("inventory record was modified concurrently")
	ErrNegativeStock            = errors.New("stock balances cannot be negative")
)

type ProductInventory struct {
	Base

	ProductID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_location_channel"`
	LocationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_location_channel"`
	ChannelID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_location_channel;index"`

	Product  Product  `gorm:"constraint:OnDelete:CASCADE"`
	Location Location `gorm:"constraint:OnDelete:RESTRICT"`
	Channel  Channel  `gorm:"constraint:OnDelete:RESTRICT"`

	AvailableStock int `gorm:"not null;default:0;check:chk_inventory_available,available_stock >= 0"`
	ReservedStock  int `gorm:"not null;default:0;check:chk_inventory_reserved,reserved_stock >= 0"`
	Version        int `gorm:"not null;default:1"`

	LastUpdated time.Time `gorm:"not null"`
}

type InventoryLog struct {
	Base

	ProductID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ChannelID  *uuid.UUID `gorm:"type:uuid;index"`
	UserID     *uuid.UUID `gorm:"type:uuid;index"`
	ChangeType string     `gorm:"type:varchar(16);not null;index"`
	Quantity   int        `gorm:"not null"`
	Reason     *string
	Timestamp  time.Time `gorm:"not null;index"`
}

type InventoryQuery struct {
	ProductName string
	LocationID  *uuid.UUID
	ChannelID   *uuid.UUID
	Pagination
}

type InventoryLogQuery struct {
	ProductID  *uuid.UUID
	ChangeType *string
	UserID     *uuid.UUID
	ChannelID  *uuid.UUID
	Pagination
}

// MutateFunc changes the balances of inv in place and returns the log entry to append.
type MutateFunc func(inv *ProductInventory) (InventoryLog, error)

type InventoryDAO struct {
	db  *gorm.DB
	now func() time.Time
}

func NewInventoryDAO(db *gorm.DB) *InventoryDAO {
	return &InventoryDAO{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (d *InventoryDAO) Insert(ctx context.Context, inv ProductInventory) (ProductInventory, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &Product{}, inv.ProductID, ErrProductNotFound); err != nil {
			return err
		}
		if err := ensureExists(tx, &Location{}, inv.LocationID, ErrLocationNotFound); err != nil {
			return err
		}
		if err := ensureExists(tx, &Channel{}, inv.ChannelID, ErrChannelNotFound); err != nil {
			return err
		}

		inv.Version = 1
		inv.LastUpdated = d.now()

		if err := tx.Omit("Product", "Location", "Channel").Create(&inv).Error; err != nil {
			switch {
			case isUniqueViolation(err):
				return ErrInventoryExists
			case isCheckViolation(err):
				return ErrNegativeStock
			}

			return err
		}

		return nil
	})
	if err != nil {
		return ProductInventory{}, err
	}

	return d.FindByKey(ctx, inv.ProductID, inv.LocationID, inv.ChannelID)
}

func (d *InventoryDAO) FindByKey(ctx context.Context, productID, locationID, channelID uuid.UUID) (ProductInventory, error) {
	var inv ProductInventory

	result := d.db.WithContext(ctx).
		Preload("Product").
		Preload("Location").
		Preload("Channel").
		Where("product_id = ? AND location_id = ? AND channel_id = ?", productID, locationID, channelID).
		First(&inv)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ProductInventory{}, ErrInventoryNotFound
		}

		return ProductInventory{}, result.Error
	}

	return inv, nil
}

func (d *InventoryDAO) FindAll(ctx context.Context, q InventoryQuery) ([]ProductInventory, int64, error) {
	db := d.db.WithContext(ctx).Model(&ProductInventory{})

	if q.ProductName != "" {
		db = db.Joins("JOIN products ON products.id = product_inventories.product_id").
			Where("LOWER(products.name) LIKE ?", likePattern(q.ProductName))
	}
	if q.LocationID != nil {
		db = db.Where("product_inventories.location_id = ?", *q.LocationID)
	}
	if q.ChannelID != nil {
		db = db.Where("product_inventories.channel_id = ?", *q.ChannelID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []ProductInventory
	result := q.apply(db).
		Preload("Product").
		Preload("Location").
		Preload("Channel").
		Order("product_inventories.last_updated DESC").
		Find(&rows)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return rows, total, nil
}

func (d *InventoryDAO) FindLogs(ctx context.Context, q InventoryLogQuery) ([]InventoryLog, int64, error) {
	db := d.db.WithContext(ctx).Model(&InventoryLog{})

	if q.ProductID != nil {
		db = db.Where("product_id = ?", *q.ProductID)
	}
	if q.ChangeType != nil {
		db = db.Where("change_type = ?", *q.ChangeType)
	}
	if q.UserID != nil {
		db = db.Where("user_id = ?", *q.UserID)
	}
	if q.ChannelID != nil {
		db = db.Where("channel_id = ?", *q.ChannelID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []InventoryLog
	if err := q.apply(db).Order("timestamp DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// Mutate reads the row, lets fn change its balances and writes it back guarded by the
// version read. The log entry returned by fn is inserted in the same transaction.
// ErrInventoryVersionConflict is returned when another writer got there first.
func (d *InventoryDAO) Mutate(ctx context.Context, productID, locationID, channelID uuid.UUID, fn MutateFunc) (ProductInventory, error) {
	var updated ProductInventory

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv ProductInventory
		err := tx.Where("product_id = ? AND location_id = ? AND channel_id = ?", productID, locationID, channelID).
			First(&inv).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInventoryNotFound
			}

			return err
		}

		version := inv.Version
		entry, err := fn(&inv)
		if err != nil {
			return err
		}

		now := d.now()
		if err = d.compareAndSwap(tx, inv.ID, version, inv.AvailableStock, inv.ReservedStock, now); err != nil {
			return err
		}

		entry.ID = uuid.Nil
		entry.Timestamp = now
		if err = tx.Create(&entry).Error; err != nil {
			return err
		}

		inv.Version = version + 1
		inv.LastUpdated = now
		updated = inv

		return nil
	})
	if err != nil {
		return ProductInventory{}, err
	}

	return updated, nil
}

func (d *InventoryDAO) compareAndSwap(tx *gorm.DB, id uuid.UUID, version, available, reserved int, now time.Time) error {
	result := tx.Model(&ProductInventory{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]any{
			"available_stock": available,
			"reserved_stock":  reserved,
			"version":         gorm.Expr("version + 1"),
			"last_updated":    now,
		})
	if result.Error != nil {
		if isCheckViolation(result.Error) {
			return ErrNegativeStock
		}

		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInventoryVersionConflict
	}

	return nil
}

func ensureExists(tx *gorm.DB, model any, id uuid.UUID, notFound error) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}

	return nil
}
