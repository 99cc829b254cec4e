package products

import (
	"strings"
	"time"

	"github.com/angelmondragon/quotebuilder-backend/internal/pricing"
	"github.com/angelmondragon/quotebuilder-backend/pkg/db/models"
)

// ProductDTO is the API shape of a catalog entry.
type ProductDTO struct {
	ID          int64     `json:"id"`
	SKU         string    `json:"sku"`
	ProductName string    `json:"productName"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Tags        string    `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DisplayName is the line item description a product contributes.
func (p ProductDTO) DisplayName() string {
	if name := strings.TrimSpace(p.ProductName); name != "" {
		return name
	}
	return p.SKU
}

// Input holds the writable product fields. Price accepts numbers or numeric
// strings and coerces anything else to zero.
type Input struct {
	SKU         string
	ProductName string
	Description string
	Price       any
	Tags        string
}

// FromModel maps a stored product to its API shape.
func FromModel(m models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          m.ID,
		ProductName: m.ProductName,
		Description: m.Description,
		Price:       m.Price.InexactFloat64(),
		Tags:        m.Tags,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.SKU != nil {
		dto.SKU = *m.SKU
	}
	return dto
}

func toModel(input Input) *models.Product {
	m := &models.Product{
		ProductName: strings.TrimSpace(input.ProductName),
		Description: strings.TrimSpace(input.Description),
		Price:       pricing.Decimal(pricing.ParseAmount(input.Price)),
		Tags:        strings.TrimSpace(input.Tags),
	}
	if sku := strings.TrimSpace(input.SKU); sku != "" {
		m.SKU = &sku
	}
	return m
}
