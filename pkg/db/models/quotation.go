package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quotebuilder-backend/pkg/enums"
	"github.com/angelmondragon/quotebuilder-backend/pkg/types"
)

// QuotationRecord is the flat persisted shape of a quotation. Header and footer
// are stored as encoded JSON text; nullable columns are pointers so an absent
// value is distinguishable from an empty one.
type QuotationRecord struct {
	ID                 int64             `gorm:"column:id;primaryKey;autoIncrement" json:"Id"`
	TemplateID         *int64            `gorm:"column:template_id" json:"template_id,omitempty"`
	ClientName         *string           `gorm:"column:client_name" json:"client_name"`
	ClientAddress      *string           `gorm:"column:client_address" json:"client_address"`
	QuotationNumber    *string           `gorm:"column:quotation_number;index:idx_quotations_number" json:"quotation_number"`
	Date               *string           `gorm:"column:date" json:"date"`
	HeaderText         types.EncodedJSON `gorm:"column:header_text;type:text" json:"header_text"`
	FooterText         types.EncodedJSON `gorm:"column:footer_text;type:text" json:"footer_text"`
	TermsAndConditions *string           `gorm:"column:terms_and_conditions;type:text" json:"terms_and_conditions"`
	Items              types.LineItems   `gorm:"column:items;type:jsonb" json:"items"`
	Subtotal           decimal.Decimal   `gorm:"column:subtotal;type:numeric(14,2);not null;default:0" json:"subtotal"`
	Tax                decimal.Decimal   `gorm:"column:tax;type:numeric(14,2);not null;default:0" json:"tax"`
	Total              decimal.Decimal   `gorm:"column:total;type:numeric(14,2);not null;default:0" json:"total"`
	Currency           enums.Currency    `gorm:"column:currency;not null;default:'THB'" json:"currency"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (QuotationRecord) TableName() string {
	return "quotations"
}
