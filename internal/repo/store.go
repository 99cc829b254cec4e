package repo

import (
	"context"

	"github.com/angelmondragon/quotebuilder-backend/pkg/pagination"
)

// Filter narrows a List call. Query matches substrings of the store's search
// columns case-insensitively; Equals holds exact column matches.
type Filter struct {
	Query  string
	Equals map[string]any
	Limit  int // zero means unbounded; callers normalize
	Cursor *pagination.Cursor
}

// Store is the CRUD contract shared by every persisted entity.
type Store[T any] interface {
	List(ctx context.Context, filter Filter) ([]T, error)
	GetByID(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, rec *T) (*T, error)
	Update(ctx context.Context, id int64, rec *T) (*T, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
