package models

import "time"

// CachedProduct is the durable snapshot of one remote catalog product.
// Price is set for single-SKU products; multi-SKU products carry varieties.
type CachedProduct struct {
	ID        string          `gorm:"column:id;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Category  string          `gorm:"column:category"`
	Price     *int            `gorm:"column:price"`
	Varieties []CachedVariety `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the cache table clearly separated from remote-owned data.
func (CachedProduct) TableName() string { return "cached_products" }

// CachedVariety is one size/price pair scoped to a cached product.
type CachedVariety struct {
	ID        uint   `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID string `gorm:"column:product_id;not null;index"`
	Size      string `gorm:"column:size;not null"`
	Price     int    `gorm:"column:price;not null"`
}

func (CachedVariety) TableName() string { return "cached_varieties" }
