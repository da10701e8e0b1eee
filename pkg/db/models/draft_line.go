package models

import "time"

// DraftLine is one row of the persisted draft-cart snapshot. The snapshot is
// rewritten whole on every cart mutation, so Position doubles as the key.
type DraftLine struct {
	Position      int       `gorm:"column:position;primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	Size          string    `gorm:"column:size"`
	Price         int       `gorm:"column:price;not null"`
	Quantity      int       `gorm:"column:quantity;not null"`
	IsFree        bool      `gorm:"column:is_free;not null;default:false"`
	OriginalPrice int       `gorm:"column:original_price"`
	DerivedFrom   string    `gorm:"column:derived_from"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (DraftLine) TableName() string { return "draft_lines" }
