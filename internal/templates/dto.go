package templates

import (
	"time"

	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
	"github.com/angelmondragon/quotebuilder-backend/pkg/db/models"
	"github.com/angelmondragon/quotebuilder-backend/pkg/enums"
	"github.com/angelmondragon/quotebuilder-backend/pkg/types"
)

// Content is the quotation skeleton a template stamps onto new documents.
type Content struct {
	Header   quotations.Header `json:"header"`
	Footer   quotations.Footer `json:"footer"`
	Terms    string            `json:"terms"`
	Currency enums.Currency    `json:"currency,omitempty"`
	Items    types.LineItems   `json:"items"`
}

// TemplateDTO is the API shape of a template.
type TemplateDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	IsDefault   bool      `json:"isDefault"`
	Featured    bool      `json:"featured"`
	Content     Content   `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Stats summarises the template library.
type Stats struct {
	Total    int `json:"total"`
	Default  int `json:"default"`
	Featured int `json:"featured"`
}

// Input holds the writable template fields.
type Input struct {
	Name        string
	Description string
	Category    string
	IsDefault   bool
	Featured    bool
	Content     Content
}

// ListInput filters the template library.
type ListInput struct {
	Query        string
	Category     string
	DefaultOnly  bool
	FeaturedOnly bool
}

// DecodeContent reads the stored content. Missing or malformed content
// yields an empty skeleton.
func DecodeContent(raw types.EncodedJSON) Content {
	var content Content
	if !raw.Decode(&content) {
		content = Content{}
	}
	if content.Items == nil {
		content.Items = types.LineItems{}
	}
	return content
}

// FromModel maps a stored template to its API shape.
func FromModel(m models.Template) TemplateDTO {
	return TemplateDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		IsDefault:   m.IsDefault,
		Featured:    m.Featured,
		Content:     DecodeContent(m.Content),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
