package models

import (
	"time"

	"github.com/angelmondragon/quotebuilder-backend/pkg/types"
)

// Template is a reusable starting shell for new quotations.
type Template struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string            `gorm:"column:name;not null"`
	Description string            `gorm:"column:description;type:text;not null;default:''"`
	Category    string            `gorm:"column:category;not null;default:''"`
	IsDefault   bool              `gorm:"column:is_default;not null;default:false"`
	Featured    bool              `gorm:"column:featured;not null;default:false"`
	Content     types.EncodedJSON `gorm:"column:content;type:text"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Template) TableName() string {
	return "templates"
}
