package quotations

import (
	"time"

	"github.com/angelmondragon/quotebuilder-backend/internal/repo"
	"github.com/angelmondragon/quotebuilder-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository is the store contract for quotation records.
type Repository = repo.Store[models.QuotationRecord]

var searchColumns = []string{"client_name", "client_address", "quotation_number"}

// NewRepository returns a GORM-backed quotation repository.
func NewRepository(conn *gorm.DB) *repo.GormStore[models.QuotationRecord] {
	return repo.NewGormStore[models.QuotationRecord](conn, repo.GormOptions{
		Entity:        "quotation",
		SearchColumns: searchColumns,
		CursorPaging:  true,
	})
}

// NewMemoryRepository returns an in-process quotation repository.
func NewMemoryRepository() *repo.MemoryStore[models.QuotationRecord] {
	return repo.NewMemoryStore[models.QuotationRecord]("quotation", repo.MemoryAccessors[models.QuotationRecord]{
		ID:        func(r *models.QuotationRecord) int64 { return r.ID },
		SetID:     func(r *models.QuotationRecord, id int64) { r.ID = id },
		CreatedAt: func(r *models.QuotationRecord) time.Time { return r.CreatedAt },
		Stamp: func(r *models.QuotationRecord, created, updated time.Time) {
			r.CreatedAt = created
			r.UpdatedAt = updated
		},
		Match: func(r *models.QuotationRecord, f repo.Filter) bool {
			if currency, ok := f.Equals["currency"]; ok && string(r.Currency) != currency {
				return false
			}
			return repo.MatchQuery(f.Query, deref(r.ClientName), deref(r.ClientAddress), deref(r.QuotationNumber))
		},
	})
}
