package repo

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	"github.com/angelmondragon/quotebuilder-backend/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string `gorm:"column:name;uniqueIndex"`
	Description string `gorm:"column:description"`
	Kind        string `gorm:"column:kind"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func newWidgetStore(t *testing.T) *GormStore[widget] {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return NewGormStore[widget](conn, GormOptions{
		Entity:        "widget",
		SearchColumns: []string{"name", "description"},
		CursorPaging:  true,
	})
}

func newWidgetMemoryStore() *MemoryStore[widget] {
	return NewMemoryStore[widget]("widget", MemoryAccessors[widget]{
		ID:        func(w *widget) int64 { return w.ID },
		SetID:     func(w *widget, id int64) { w.ID = id },
		CreatedAt: func(w *widget) time.Time { return w.CreatedAt },
		Stamp: func(w *widget, created, updated time.Time) {
			w.CreatedAt = created
			w.UpdatedAt = updated
		},
		Match: func(w *widget, f Filter) bool {
			if kind, ok := f.Equals["kind"]; ok && w.Kind != kind {
				return false
			}
			q := strings.ToLower(strings.TrimSpace(f.Query))
			return q == "" ||
				strings.Contains(strings.ToLower(w.Name), q) ||
				strings.Contains(strings.ToLower(w.Description), q)
		},
	})
}

func storesUnderTest(t *testing.T) map[string]Store[widget] {
	return map[string]Store[widget]{
		"gorm":   newWidgetStore(t),
		"memory": newWidgetMemoryStore(),
	}
}

func TestStoreCRUD(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			created, err := store.Create(ctx, &widget{Name: "Gear", Description: "Steel gear", Kind: "part"})
			require.NoError(t, err)
			require.NotZero(t, created.ID)
			assert.False(t, created.CreatedAt.IsZero())

			second, err := store.Create(ctx, &widget{Name: "Bolt", Kind: "fastener"})
			require.NoError(t, err)
			assert.Equal(t, created.ID+1, second.ID)

			got, err := store.GetByID(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, "Gear", got.Name)

			updated, err := store.Update(ctx, created.ID, &widget{Name: "Gear XL", Kind: "part"})
			require.NoError(t, err)
			assert.Equal(t, created.ID, updated.ID)
			assert.Equal(t, "Gear XL", updated.Name)
			assert.Equal(t, "", updated.Description, "update overwrites every column")

			_, err = store.Update(ctx, 999, &widget{Name: "ghost"})
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

			ok, err := store.Delete(ctx, created.ID)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = store.Delete(ctx, created.ID)
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = store.GetByID(ctx, created.ID)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
		})
	}
}

func TestStoreListFilters(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, w := range []widget{
				{Name: "Blue Widget", Description: "small", Kind: "a"},
				{Name: "Red gadget", Description: "Contains WIDGET parts", Kind: "b"},
				{Name: "Green thing", Description: "plain", Kind: "a"},
			} {
				w := w
				_, err := store.Create(ctx, &w)
				require.NoError(t, err)
			}

			rows, err := store.List(ctx, Filter{Query: "widget"})
			require.NoError(t, err)
			assert.Len(t, rows, 2)

			rows, err = store.List(ctx, Filter{Equals: map[string]any{"kind": "a"}})
			require.NoError(t, err)
			assert.Len(t, rows, 2)

			rows, err = store.List(ctx, Filter{Query: "widget", Equals: map[string]any{"kind": "a"}})
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "Blue Widget", rows[0].Name)

			rows, err = store.List(ctx, Filter{Limit: 2})
			require.NoError(t, err)
			assert.Len(t, rows, 2)
		})
	}
}

func TestGormStoreCursorPaging(t *testing.T) {
	store := newWidgetStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := store.Create(ctx, &widget{Name: fmt.Sprintf("w%d", i), CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}

	first, err := store.List(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "w4", first[0].Name)

	last := first[len(first)-1]
	next, err := store.List(ctx, Filter{Limit: 2, Cursor: &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}})
	require.NoError(t, err)
	require.Len(t, next, 2)
	assert.Equal(t, "w2", next[0].Name)
	assert.Equal(t, "w1", next[1].Name)
}

func TestGormStoreUniqueConflict(t *testing.T) {
	store := newWidgetStore(t)
	ctx := context.Background()
	_, err := store.Create(ctx, &widget{Name: "dup"})
	require.NoError(t, err)

	_, err = store.Create(ctx, &widget{Name: "dup"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestMemoryStoreKeepsCreatedAt(t *testing.T) {
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store := newWidgetMemoryStore().WithClock(func() time.Time { return clock })
	ctx := context.Background()

	created, err := store.Create(ctx, &widget{Name: "a"})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	updated, err := store.Update(ctx, created.ID, &widget{Name: "b"})
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, clock, updated.UpdatedAt)
}

func TestStoreRejectsNil(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Create(context.Background(), nil)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		})
	}
}

func TestGormStoreWithTxRollsBack(t *testing.T) {
	store := newWidgetStore(t)
	ctx := context.Background()

	err := store.conn.Transaction(func(tx *gorm.DB) error {
		if _, err := store.WithTx(tx).Create(ctx, &widget{Name: "draft"}); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	rows, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
