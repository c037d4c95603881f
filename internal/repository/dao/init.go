package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Location{},
		&Address{},
		&Channel{},
		&Category{},
		&Product{},
		&ProductImage{},
		&ProductInventory{},
		&InventoryLog{},
	)
}
