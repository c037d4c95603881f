package dao

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrChannelInUse    = errors.New("channel is referenced by inventory records")
)

type Channel struct {
	Base

	Name        string `gorm:"not null"`
	Description *string
}

type ChannelDAO struct {
	db *gorm.DB
}

func NewChannelDAO(db *gorm.DB) *ChannelDAO {
	return &ChannelDAO{
		db: db,
	}
}

func (d *ChannelDAO) Insert(ctx context.Context, channel Channel) (Channel, error) {
	result := d.db.WithContext(ctx).Create(&channel)
	if result.Error != nil {
		return Channel{}, result.Error
	}

	return channel, nil
}

func (d *ChannelDAO) FindAll(ctx context.Context) ([]Channel, error) {
	var channels []Channel

	result := d.db.WithContext(ctx).Order("name").Find(&channels)
	if result.Error != nil {
		return nil, result.Error
	}

	return channels, nil
}

func (d *ChannelDAO) FindByID(ctx context.Context, id uuid.UUID) (Channel, error) {
	var channel Channel

	result := d.db.WithContext(ctx).First(&channel, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Channel{}, ErrChannelNotFound
		}

		return Channel{}, result.Error
	}

	return channel, nil
}

func (d *ChannelDAO) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (Channel, error) {
	if len(fields) > 0 {
		result := d.db.WithContext(ctx).Model(&Channel{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return Channel{}, result.Error
		}
		if result.RowsAffected == 0 {
			return Channel{}, ErrChannelNotFound
		}
	}

	return d.FindByID(ctx, id)
}

func (d *ChannelDAO) Delete(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&ProductInventory{}).Where("channel_id = ?", id).Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return ErrChannelInUse
		}

		result := tx.Delete(&Channel{}, "id = ?", id)
		if result.Error != nil {
			if isForeignKeyViolation(result.Error) {
				return ErrChannelInUse
			}

			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrChannelNotFound
		}

		return nil
	})
}
