package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserEmailExists   = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrResetTokenInvalid = errors.New("invalid or expired token")
)

type User struct {
	Base

	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"`

	Username  string `gorm:"not null"`
	FullName  string `gorm:"not null"`
	Telephone string `gorm:"not null"`
	CPF       string `gorm:"column:cpf;not null"`

	ResetPasswordToken   *string `gorm:"index"`
	ResetPasswordExpires *time.Time

	// Roles is stored as a comma separated list.
	Roles string `gorm:"not null;default:user"`

	Addresses []Address `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

// Insert creates the user and its addresses in one transaction.
func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		addresses := user.Addresses
		user.Addresses = nil

		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrUserEmailExists
			}

			return err
		}

		for i := range addresses {
			addresses[i].UserID = &user.ID
		}
		if len(addresses) > 0 {
			if err := tx.Create(&addresses).Error; err != nil {
				return err
			}
		}
		user.Addresses = addresses

		return nil
	})
	if err != nil {
		return User{}, err
	}

	return user, nil
}

func (d *UserDAO) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	var user User

	result := d.db.WithContext(ctx).Preload("Addresses").First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User

	result := d.db.WithContext(ctx).Preload("Addresses").First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

// FindByResetToken returns the user owning token when it has not expired at now.
func (d *UserDAO) FindByResetToken(ctx context.Context, token string, now time.Time) (User, error) {
	var user User

	result := d.db.WithContext(ctx).
		Where("reset_password_token = ? AND reset_password_expires > ?", token, now).
		First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrResetTokenInvalid
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindAll(ctx context.Context) ([]User, error) {
	var users []User

	result := d.db.WithContext(ctx).Preload("Addresses").Order("created_at").Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

// Update writes the given columns. Keys are column names.
func (d *UserDAO) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (User, error) {
	if len(fields) > 0 {
		result := d.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			if isUniqueViolation(result.Error) {
				return User{}, ErrUserEmailExists
			}

			return User{}, result.Error
		}
		if result.RowsAffected == 0 {
			return User{}, ErrUserNotFound
		}
	}

	return d.FindByID(ctx, id)
}

func (d *UserDAO) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	result := d.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(map[string]any{
		"reset_password_token":   token,
		"reset_password_expires": expires,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ResetPassword stores hash and clears the reset token fields.
func (d *UserDAO) ResetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	result := d.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(map[string]any{
		"password":               hash,
		"reset_password_token":   nil,
		"reset_password_expires": nil,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
