package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QueuedOrder is a finalized invoice staged locally until the remote order
// store confirms the write. Products is the JSON-encoded line array in the
// remote wire shape.
type QueuedOrder struct {
	ID          string          `gorm:"column:id;primaryKey"`
	RemoteID    *string         `gorm:"column:remote_id"`
	Products    string          `gorm:"column:products;not null"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:decimal(12,2);not null"`
	Delivery    int             `gorm:"column:delivery;not null;default:0"`
	Discount    int             `gorm:"column:discount;not null;default:0"`
	Phone       *string         `gorm:"column:phone"`
	Timestamp   time.Time       `gorm:"column:timestamp;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (QueuedOrder) TableName() string { return "queued_orders" }
