package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrLocationInUse    = errors.New("location is referenced by inventory records")
)

type Location struct {
	Base

	Name     string   `gorm:"not null"`
	Capacity int      `gorm:"not null;default:0;check:chk_locations_capacity,capacity >= 0"`
	Address  *Address `gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type LocationDAO struct {
	db *gorm.DB
}

func NewLocationDAO(db *gorm.DB) *LocationDAO {
	return &LocationDAO{
		db: db,
	}
}

func (d *LocationDAO) Insert(ctx context.Context, location Location) (Location, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		address := location.Address
		location.Address = nil

		if err := tx.Create(&location).Error; err != nil {
			return err
		}

		if address != nil {
			address.LocationID = &location.ID
			if err := tx.Create(address).Error; err != nil {
				return err
			}
		}
		location.Address = address

		return nil
	})
	if err != nil {
		return Location{}, err
	}

	return location, nil
}

func (d *LocationDAO) FindAll(ctx context.Context) ([]Location, error) {
	var locations []Location

	result := d.db.WithContext(ctx).Preload("Address").Order("name").Find(&locations)
	if result.Error != nil {
		return nil, result.Error
	}

	return locations, nil
}

func (d *LocationDAO) FindByID(ctx context.Context, id uuid.UUID) (Location, error) {
	var location Location

	result := d.db.WithContext(ctx).Preload("Address").First(&location, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Location{}, ErrLocationNotFound
		}

		return Location{}, result.Error
	}

	return location, nil
}

// Update writes fields and, when address is not nil, creates or replaces the location's
// address in the same transaction.
func (d *LocationDAO) Update(ctx context.Context, id uuid.UUID, fields map[string]any, address *Address) (Location, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Location
		if err := tx.Preload("Address").First(&current, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLocationNotFound
			}

			return err
		}

		if len(fields) > 0 {
			if err := tx.Model(&current).Updates(fields).Error; err != nil {
				return err
			}
		}

		if address == nil {
			return nil
		}

		address.LocationID = &current.ID
		if current.Address == nil {
			address.ID = uuid.Nil
			return tx.Create(address).Error
		}

		address.ID = current.Address.ID

		return tx.Model(current.Address).Select("*").Omit("id").Updates(address).Error
	})
	if err != nil {
		return Location{}, err
	}

	return d.FindByID(ctx, id)
}

func (d *LocationDAO) Delete(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&ProductInventory{}).Where("location_id = ?", id).Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return ErrLocationInUse
		}

		if err := tx.Where("location_id = ?", id).Delete(&Address{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&Location{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrLocationNotFound
		}

		return nil
	})
}
