package templates

import (
	"strings"
	"time"

	"github.com/angelmondragon/quotebuilder-backend/internal/repo"
	"github.com/angelmondragon/quotebuilder-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository is the store contract for templates.
type Repository = repo.Store[models.Template]

// NewRepository returns a GORM-backed template repository. Default templates
// list first, then by name.
func NewRepository(conn *gorm.DB) *repo.GormStore[models.Template] {
	return repo.NewGormStore[models.Template](conn, repo.GormOptions{
		Entity:        "template",
		SearchColumns: []string{"name", "description"},
		Order:         "is_default DESC, name ASC, id ASC",
	})
}

// NewMemoryRepository returns an in-process template repository.
func NewMemoryRepository() *repo.MemoryStore[models.Template] {
	return repo.NewMemoryStore[models.Template]("template", repo.MemoryAccessors[models.Template]{
		ID:        func(t *models.Template) int64 { return t.ID },
		SetID:     func(t *models.Template, id int64) { t.ID = id },
		CreatedAt: func(t *models.Template) time.Time { return t.CreatedAt },
		Stamp: func(t *models.Template, created, updated time.Time) {
			t.CreatedAt = created
			t.UpdatedAt = updated
		},
		Match: func(t *models.Template, f repo.Filter) bool {
			if v, ok := f.Equals["category"]; ok && t.Category != v {
				return false
			}
			if v, ok := f.Equals["is_default"]; ok && t.IsDefault != v {
				return false
			}
			if v, ok := f.Equals["featured"]; ok && t.Featured != v {
				return false
			}
			return repo.MatchQuery(f.Query, t.Name, t.Description)
		},
		Less: func(a, b *models.Template) bool {
			if a.IsDefault != b.IsDefault {
				return a.IsDefault
			}
			if an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name); an != bn {
				return an < bn
			}
			return a.ID < b.ID
		},
	})
}
