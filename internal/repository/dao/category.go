package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound       = errors.New("category not found")
	ErrParentCategoryNotFound = errors.New("parent category not found")
	ErrCategoryHasChildren    = errors.New("category has child categories")
)

type Category struct {
	Base

	Name        string `gorm:"not null"`
	Description *string
	ParentID    *uuid.UUID `gorm:"type:uuid;index"`

	Parent   *Category  `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL"`
	Children []Category `gorm:"foreignKey:ParentID"`
	Products []Product  `gorm:"many2many:product_categories"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type CategoryDAO struct {
	db *gorm.DB
}

func NewCategoryDAO(db *gorm.DB) *CategoryDAO {
	return &CategoryDAO{
		db: db,
	}
}

func (d *CategoryDAO) Insert(ctx context.Context, category Category) (Category, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if category.ParentID != nil {
			if err := ensureCategoryExists(tx, *category.ParentID); err != nil {
				return err
			}
		}

		return tx.Omit("Parent", "Children", "Products").Create(&category).Error
	})
	if err != nil {
		return Category{}, err
	}

	return category, nil
}

func (d *CategoryDAO) FindAll(ctx context.Context) ([]Category, error) {
	var categories []Category

	result := d.db.WithContext(ctx).Preload("Parent").Preload("Children").Order("name").Find(&categories)
	if result.Error != nil {
		return nil, result.Error
	}

	return categories, nil
}

// FindAllFlat loads every category without relations.
func (d *CategoryDAO) FindAllFlat(ctx context.Context) ([]Category, error) {
	var categories []Category

	result := d.db.WithContext(ctx).Order("name").Find(&categories)
	if result.Error != nil {
		return nil, result.Error
	}

	return categories, nil
}

func (d *CategoryDAO) FindByID(ctx context.Context, id uuid.UUID) (Category, error) {
	var category Category

	result := d.db.WithContext(ctx).
		Preload("Parent").
		Preload("Children").
		Preload("Products").
		First(&category, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Category{}, ErrCategoryNotFound
		}

		return Category{}, result.Error
	}

	return category, nil
}

func (d *CategoryDAO) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var categories []Category

	result := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&categories)
	if result.Error != nil {
		return nil, result.Error
	}

	return categories, nil
}

// Update writes fields. A "parent_id" key is checked against existing categories first.
func (d *CategoryDAO) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (Category, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCategoryExists(tx, id); err != nil {
			if errors.Is(err, ErrParentCategoryNotFound) {
				return ErrCategoryNotFound
			}

			return err
		}

		if parentID, ok := fields["parent_id"].(*uuid.UUID); ok && parentID != nil {
			if err := ensureCategoryExists(tx, *parentID); err != nil {
				return err
			}
		}

		if len(fields) == 0 {
			return nil
		}

		return tx.Model(&Category{}).Where("id = ?", id).Updates(fields).Error
	})
	if err != nil {
		return Category{}, err
	}

	return d.FindByID(ctx, id)
}

func (d *CategoryDAO) Delete(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var children int64
		if err := tx.Model(&Category{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
			return err
		}
		if children > 0 {
			return ErrCategoryHasChildren
		}

		if err := tx.Exec("DELETE FROM product_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}

		result := tx.Delete(&Category{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCategoryNotFound
		}

		return nil
	})
}

func ensureCategoryExists(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrParentCategoryNotFound
	}

	return nil
}
