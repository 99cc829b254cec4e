package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry used to prefill quotation line items.
type Product struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	SKU         *string         `gorm:"column:sku;uniqueIndex:uq_products_sku"`
	ProductName string          `gorm:"column:product_name;not null;default:''"`
	Description string          `gorm:"column:description;type:text;not null;default:''"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null;default:0"`
	Tags        string          `gorm:"column:tags;not null;default:''"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
