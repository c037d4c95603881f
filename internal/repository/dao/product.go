package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductImageNotFound = errors.New("product image not found")
	ErrUnknownCategory      = errors.New("one or more categories do not exist")
)

type Product struct {
	Base

	Name        string          `gorm:"not null;index"`
	Description *string         `gorm:"type:text"`
	Brand       string          `gorm:"not null;index"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null;check:chk_products_price,price >= 0"`

	Images     []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Categories []Category     `gorm:"many2many:product_categories"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProductImage struct {
	Base

	URL         string    `gorm:"not null"`
	IsPrimary   bool      `gorm:"not null;default:false"`
	IsListImage bool      `gorm:"not null;default:false"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
}

type ProductQuery struct {
	Search     string
	CategoryID *uuid.UUID
	Pagination
}

// ProductChanges is applied by Update in a single transaction.
type ProductChanges struct {
	Fields            map[string]any
	ReplaceCategories bool
	CategoryIDs       []uuid.UUID
	DeleteImageIDs    []uuid.UUID
	ImageFlags        []ProductImage
	NewImages         []ProductImage
}

type ProductDAO struct {
	db *gorm.DB
}

func NewProductDAO(db *gorm.DB) *ProductDAO {
	return &ProductDAO{
		db: db,
	}
}

// Insert creates the product, its category links and its images in one transaction.
// The product ID may be assigned by the caller.
func (d *ProductDAO) Insert(ctx context.Context, product Product, categoryIDs []uuid.UUID) (Product, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories, err := loadCategories(tx, categoryIDs)
		if err != nil {
			return err
		}

		images := product.Images
		product.Images = nil
		product.Categories = nil

		if err = tx.Omit("Images", "Categories").Create(&product).Error; err != nil {
			return err
		}

		if len(categories) > 0 {
			if err = tx.Model(&product).Omit("Categories.*").Association("Categories").Append(categories); err != nil {
				return err
			}
		}

		for i := range images {
			images[i].ProductID = product.ID
		}
		if len(images) > 0 {
			if err = tx.Create(&images).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return Product{}, err
	}

	return d.FindByID(ctx, product.ID)
}

func (d *ProductDAO) FindByID(ctx context.Context, id uuid.UUID) (Product, error) {
	var product Product

	result := d.db.WithContext(ctx).
		Preload("Images").
		Preload("Categories").
		First(&product, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Product{}, ErrProductNotFound
		}

		return Product{}, result.Error
	}

	return product, nil
}

func (d *ProductDAO) FindAll(ctx context.Context, q ProductQuery) ([]Product, int64, error) {
	db := d.db.WithContext(ctx).Model(&Product{})

	if q.Search != "" {
		pattern := likePattern(q.Search)
		db = db.Where(
			"LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ? OR LOWER(brand) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if q.CategoryID != nil {
		db = db.Where("id IN (?)",
			d.db.Table("product_categories").Select("product_id").Where("category_id = ?", *q.CategoryID))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []Product
	result := q.apply(db).
		Preload("Images").
		Preload("Categories").
		Order("created_at DESC").
		Find(&products)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return products, total, nil
}

func (d *ProductDAO) Update(ctx context.Context, id uuid.UUID, changes ProductChanges) (Product, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product := Product{Base: Base{ID: id}}
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}

			return err
		}

		if len(changes.Fields) > 0 {
			if err := tx.Model(&product).Updates(changes.Fields).Error; err != nil {
				return err
			}
		}

		if changes.ReplaceCategories {
			categories, err := loadCategories(tx, changes.CategoryIDs)
			if err != nil {
				return err
			}
			if err = tx.Model(&product).Omit("Categories.*").Association("Categories").Replace(categories); err != nil {
				return err
			}
		}

		if len(changes.DeleteImageIDs) > 0 {
			err := tx.Where("product_id = ? AND id IN ?", id, changes.DeleteImageIDs).Delete(&ProductImage{}).Error
			if err != nil {
				return err
			}
		}

		for _, img := range changes.ImageFlags {
			result := tx.Model(&ProductImage{}).
				Where("id = ? AND product_id = ?", img.ID, id).
				Updates(map[string]any{"is_primary": img.IsPrimary, "is_list_image": img.IsListImage})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrProductImageNotFound
			}
		}

		if len(changes.NewImages) > 0 {
			for i := range changes.NewImages {
				changes.NewImages[i].ProductID = id
			}
			if err := tx.Create(&changes.NewImages).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return Product{}, err
	}

	return d.FindByID(ctx, id)
}

// Delete removes the product, its images and its category links.
func (d *ProductDAO) Delete(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM product_categories WHERE product_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&ProductImage{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&Product{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}

		return nil
	})
}

func loadCategories(tx *gorm.DB, ids []uuid.UUID) ([]Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	unique := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}

	var categories []Category
	if err := tx.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	if len(categories) != len(unique) {
		return nil, ErrUnknownCategory
	}

	return categories, nil
}
