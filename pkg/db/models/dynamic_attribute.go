package models

import (
	"time"

	"github.com/angelmondragon/quotebuilder-backend/pkg/enums"
)

// DynamicAttribute is a free-form key/value pair attached to a product.
type DynamicAttribute struct {
	ID             int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string                  `gorm:"column:name;not null;default:''"`
	AttributeName  string                  `gorm:"column:attribute_name;not null;default:''"`
	DataType       enums.AttributeDataType `gorm:"column:data_type;not null;default:'Text'"`
	AttributeValue string                  `gorm:"column:attribute_value;type:text;not null;default:''"`
	ProductID      *int64                  `gorm:"column:product_id;index:idx_dynamic_attributes_product"`
	Product        *Product                `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Tags           string                  `gorm:"column:tags;not null;default:''"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (DynamicAttribute) TableName() string {
	return "dynamic_attributes"
}
