package dao

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrAddressNotFound = errors.New("address not found")

type Address struct {
	Base

	CEP          string `gorm:"column:cep;not null"`
	Address      string `gorm:"not null"`
	Number       string `gorm:"not null"`
	Complement   *string
	Neighborhood string `gorm:"not null"`
	City         string `gorm:"not null"`
	State        string `gorm:"not null"`

	UserID     *uuid.UUID `gorm:"type:uuid;index"`
	LocationID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
}

type AddressDAO struct {
	db *gorm.DB
}

func NewAddressDAO(db *gorm.DB) *AddressDAO {
	return &AddressDAO{
		db: db,
	}
}

func (d *AddressDAO) Insert(ctx context.Context, address Address) (Address, error) {
	result := d.db.WithContext(ctx).Create(&address)
	if result.Error != nil {
		if isForeignKeyViolation(result.Error) {
			return Address{}, ErrUserNotFound
		}

		return Address{}, result.Error
	}

	return address, nil
}

func (d *AddressDAO) FindByUserID(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	var addresses []Address

	result := d.db.WithContext(ctx).Where("user_id = ?", userID).Find(&addresses)
	if result.Error != nil {
		return nil, result.Error
	}

	return addresses, nil
}

func (d *AddressDAO) DeleteForUser(ctx context.Context, userID, addressID uuid.UUID) error {
	result := d.db.WithContext(ctx).Where("id = ? AND user_id = ?", addressID, userID).Delete(&Address{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAddressNotFound
	}

	return nil
}
