package products

import (
	"time"

	"github.com/angelmondragon/quotebuilder-backend/internal/repo"
	"github.com/angelmondragon/quotebuilder-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository is the store contract for products.
type Repository = repo.Store[models.Product]

// NewRepository returns a GORM-backed product repository, newest first.
func NewRepository(conn *gorm.DB) *repo.GormStore[models.Product] {
	return repo.NewGormStore[models.Product](conn, repo.GormOptions{
		Entity:        "product",
		SearchColumns: []string{"sku", "product_name", "description"},
		CursorPaging:  true,
	})
}

// NewMemoryRepository returns an in-process product repository.
func NewMemoryRepository() *repo.MemoryStore[models.Product] {
	return repo.NewMemoryStore[models.Product]("product", repo.MemoryAccessors[models.Product]{
		ID:        func(p *models.Product) int64 { return p.ID },
		SetID:     func(p *models.Product, id int64) { p.ID = id },
		CreatedAt: func(p *models.Product) time.Time { return p.CreatedAt },
		Stamp: func(p *models.Product, created, updated time.Time) {
			p.CreatedAt = created
			p.UpdatedAt = updated
		},
		Match: func(p *models.Product, f repo.Filter) bool {
			sku := ""
			if p.SKU != nil {
				sku = *p.SKU
			}
			if v, ok := f.Equals["sku"]; ok && sku != v {
				return false
			}
			return repo.MatchQuery(f.Query, sku, p.ProductName, p.Description)
		},
	})
}
