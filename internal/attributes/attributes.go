// Package attributes manages the free-form key/value pairs attached to
// catalog products.
package attributes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/quotebuilder-backend/internal/repo"
	"github.com/angelmondragon/quotebuilder-backend/internal/validation"
	"github.com/angelmondragon/quotebuilder-backend/pkg/db/models"
	"github.com/angelmondragon/quotebuilder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository is the store contract for dynamic attributes.
type Repository = repo.Store[models.DynamicAttribute]

type productLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Product, error)
}

// AttributeDTO is the API shape of a dynamic attribute.
type AttributeDTO struct {
	ID             int64                   `json:"id"`
	Name           string                  `json:"name"`
	AttributeName  string                  `json:"attributeName"`
	DataType       enums.AttributeDataType `json:"dataType"`
	AttributeValue string                  `json:"attributeValue"`
	ProductID      *int64                  `json:"productId"`
	Tags           string                  `json:"tags"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// Input holds the writable attribute fields.
type Input struct {
	Name           string
	AttributeName  string
	DataType       string
	AttributeValue string
	ProductID      *int64
	Tags           string
}

// ListInput filters attributes.
type ListInput struct {
	Query     string
	ProductID *int64
}

// Service manages dynamic attributes.
type Service interface {
	List(ctx context.Context, input ListInput) ([]AttributeDTO, error)
	Get(ctx context.Context, id int64) (*AttributeDTO, error)
	Create(ctx context.Context, input Input) (*AttributeDTO, error)
	Update(ctx context.Context, id int64, input Input) (*AttributeDTO, error)
	Delete(ctx context.Context, id int64) error
}

// NewRepository returns a GORM-backed attribute repository ordered by
// attribute name.
func NewRepository(conn *gorm.DB) *repo.GormStore[models.DynamicAttribute] {
	return repo.NewGormStore[models.DynamicAttribute](conn, repo.GormOptions{
		Entity:        "dynamic attribute",
		SearchColumns: []string{"name", "attribute_name", "attribute_value"},
		Order:         "attribute_name ASC, id ASC",
	})
}

// NewMemoryRepository returns an in-process attribute repository.
func NewMemoryRepository() *repo.MemoryStore[models.DynamicAttribute] {
	return repo.NewMemoryStore[models.DynamicAttribute]("dynamic attribute", repo.MemoryAccessors[models.DynamicAttribute]{
		ID:        func(a *models.DynamicAttribute) int64 { return a.ID },
		SetID:     func(a *models.DynamicAttribute, id int64) { a.ID = id },
		CreatedAt: func(a *models.DynamicAttribute) time.Time { return a.CreatedAt },
		Stamp: func(a *models.DynamicAttribute, created, updated time.Time) {
			a.CreatedAt = created
			a.UpdatedAt = updated
		},
		Match: func(a *models.DynamicAttribute, f repo.Filter) bool {
			if v, ok := f.Equals["product_id"]; ok {
				if a.ProductID == nil || *a.ProductID != v {
					return false
				}
			}
			return repo.MatchQuery(f.Query, a.Name, a.AttributeName, a.AttributeValue)
		},
		Less: func(a, b *models.DynamicAttribute) bool {
			if a.AttributeName != b.AttributeName {
				return a.AttributeName < b.AttributeName
			}
			return a.ID < b.ID
		},
	})
}

type service struct {
	repo     Repository
	products productLookup
}

// NewService constructs an attribute service. products, when set, is used to
// reject attributes pointing at unknown products.
func NewService(repo Repository, products productLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("attribute repository required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]AttributeDTO, error) {
	filter := repo.Filter{Query: input.Query}
	if input.ProductID != nil {
		filter.Equals = map[string]any{"product_id": *input.ProductID}
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]AttributeDTO, len(rows))
	for i, row := range rows {
		out[i] = fromModel(row)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id int64) (*AttributeDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "attribute id is required")
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := fromModel(*row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input Input) (*AttributeDTO, error) {
	model, err := s.toModel(ctx, input)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, model)
	if err != nil {
		return nil, err
	}
	dto := fromModel(*created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id int64, input Input) (*AttributeDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "attribute id is required")
	}
	model, err := s.toModel(ctx, input)
	if err != nil {
		return nil, err
	}
	model.ID = id
	updated, err := s.repo.Update(ctx, id, model)
	if err != nil {
		return nil, err
	}
	dto := fromModel(*updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "dynamic attribute %d not found", id)
	}
	return nil
}

func (s *service) toModel(ctx context.Context, input Input) (*models.DynamicAttribute, error) {
	dataType, err := enums.ParseAttributeDataType(input.DataType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid data type")
	}
	attributeName := strings.TrimSpace(input.AttributeName)
	value := strings.TrimSpace(input.AttributeValue)
	if err := validation.Attribute(attributeName, dataType, value).Err(); err != nil {
		return nil, err
	}
	if input.ProductID != nil && s.products != nil {
		if _, err := s.products.GetByID(ctx, *input.ProductID); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "product does not exist").
					WithDetails(map[string]string{"productId": err.Error()})
			}
			return nil, err
		}
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = attributeName
	}
	return &models.DynamicAttribute{
		Name:           name,
		AttributeName:  attributeName,
		DataType:       dataType,
		AttributeValue: value,
		ProductID:      input.ProductID,
		Tags:           strings.TrimSpace(input.Tags),
	}, nil
}

func fromModel(m models.DynamicAttribute) AttributeDTO {
	return AttributeDTO{
		ID:             m.ID,
		Name:           m.Name,
		AttributeName:  m.AttributeName,
		DataType:       m.DataType,
		AttributeValue: m.AttributeValue,
		ProductID:      m.ProductID,
		Tags:           m.Tags,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
