package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/quotebuilder-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOptions configures a GormStore.
type GormOptions struct {
	// Entity names the record in error messages.
	Entity string
	// SearchColumns are matched by Filter.Query.
	SearchColumns []string
	// Order is the ORDER BY clause for List; defaults to newest first.
	Order string
	// CursorPaging enables created_at/id keyset pagination for List.
	CursorPaging bool
}

// GormStore implements Store on top of a GORM connection.
type GormStore[T any] struct {
	conn *gorm.DB
	opts GormOptions
}

// NewGormStore builds a Store for T backed by conn.
func NewGormStore[T any](conn *gorm.DB, opts GormOptions) *GormStore[T] {
	if opts.Entity == "" {
		opts.Entity = "record"
	}
	if opts.Order == "" {
		opts.Order = "created_at DESC, id DESC"
	}
	return &GormStore[T]{conn: conn, opts: opts}
}

// WithTx returns a store bound to the provided transaction.
func (s *GormStore[T]) WithTx(tx *gorm.DB) *GormStore[T] {
	return &GormStore[T]{conn: tx, opts: s.opts}
}

func (s *GormStore[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	query := s.conn.WithContext(ctx).Model(new(T))

	if term := strings.ToLower(strings.TrimSpace(filter.Query)); term != "" && len(s.opts.SearchColumns) > 0 {
		like := "%" + term + "%"
		clauses := make([]string, 0, len(s.opts.SearchColumns))
		args := make([]any, 0, len(s.opts.SearchColumns))
		for _, col := range s.opts.SearchColumns {
			clauses = append(clauses, fmt.Sprintf("LOWER(COALESCE(%s, '')) LIKE ?", col))
			args = append(args, like)
		}
		query = query.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}

	for col, val := range filter.Equals {
		query = query.Where(clause.Eq{Column: clause.Column{Name: col}, Value: val})
	}

	if s.opts.CursorPaging && filter.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []T
	if err := query.Order(s.opts.Order).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list "+s.opts.Entity)
	}
	return rows, nil
}

func (s *GormStore[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	var rec T
	if err := s.conn.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "%s %d not found", s.opts.Entity, id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load "+s.opts.Entity)
	}
	return &rec, nil
}

func (s *GormStore[T]) Create(ctx context.Context, rec *T) (*T, error) {
	if rec == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, s.opts.Entity+" is required")
	}
	if err := s.conn.WithContext(ctx).Omit(clause.Associations).Create(rec).Error; err != nil {
		return nil, s.writeError(err, "insert")
	}
	return rec, nil
}

// Update overwrites every column of the row except id and created_at.
func (s *GormStore[T]) Update(ctx context.Context, id int64, rec *T) (*T, error) {
	if rec == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, s.opts.Entity+" is required")
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	err := s.conn.WithContext(ctx).
		Model(new(T)).
		Where("id = ?", id).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(rec).Error
	if err != nil {
		return nil, s.writeError(err, "update")
	}
	return s.GetByID(ctx, id)
}

func (s *GormStore[T]) Delete(ctx context.Context, id int64) (bool, error) {
	res := s.conn.WithContext(ctx).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "db: delete "+s.opts.Entity)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore[T]) writeError(err error, op string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, s.opts.Entity+" already exists")
	}
	return pkgerrors.Wrapf(pkgerrors.CodeDependency, err, "db: %s %s", op, s.opts.Entity)
}
