package products

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/quotebuilder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	"github.com/angelmondragon/quotebuilder-backend/pkg/pagination"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	sets int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	default:
		f.data[key] = fmt.Sprint(v)
	}
	return nil
}

func (f *fakeRedis) Counter(_ context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, _ := strconv.ParseInt(f.data["qb:counter:"+name], 10, 64)
	return n, nil
}

func (f *fakeRedis) Bump(_ context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := "qb:counter:" + name
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (f *fakeRedis) ProductSearchKey(version int64, query string) string {
	return fmt.Sprintf("qb:product_search:v%d:%s", version, strings.ToLower(strings.TrimSpace(query)))
}

func newSQLiteRepository(t *testing.T) Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Product{}))
	return NewRepository(conn)
}

func newTestService(t *testing.T, repo Repository, cache SearchCache) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Cache:    cache,
		Debounce: time.Millisecond,
	})
	require.NoError(t, err)
	return svc
}

func TestProductCRUD(t *testing.T) {
	repos := map[string]Repository{
		"gorm":   newSQLiteRepository(t),
		"memory": NewMemoryRepository(),
	}
	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := newTestService(t, repo, nil)

			created, err := svc.Create(ctx, Input{SKU: " BOLT-10 ", ProductName: "Hex bolt", Price: "12.50 THB"})
			require.NoError(t, err)
			assert.Equal(t, "BOLT-10", created.SKU)
			assert.Equal(t, 12.5, created.Price)

			_, err = svc.Create(ctx, Input{SKU: "BOLT-10", ProductName: "Duplicate"})
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

			updated, err := svc.Update(ctx, created.ID, Input{SKU: "BOLT-10", ProductName: "Hex bolt M10", Price: 15})
			require.NoError(t, err)
			assert.Equal(t, "Hex bolt M10", updated.ProductName)
			assert.Equal(t, 15.0, updated.Price)

			got, err := svc.Get(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, "Hex bolt M10", got.DisplayName())

			require.NoError(t, svc.Delete(ctx, created.ID))
			assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, created.ID), pkgerrors.CodeNotFound))
		})
	}
}

func TestProductCreateValidates(t *testing.T) {
	svc := newTestService(t, NewMemoryRepository(), nil)
	_, err := svc.Create(context.Background(), Input{Price: -1})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestProductCreateCoercesGarbagePrice(t *testing.T) {
	svc := newTestService(t, NewMemoryRepository(), nil)
	created, err := svc.Create(context.Background(), Input{ProductName: "Gift", Price: "free"})
	require.NoError(t, err)
	assert.Zero(t, created.Price)
}

func TestProductListPaging(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryRepository(), nil)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, Input{ProductName: fmt.Sprintf("Item %d", i)})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, ListInput{Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.Cursor)

	rest, err := svc.List(ctx, ListInput{Pagination: pagination.Params{Limit: 2, Cursor: page.Cursor}})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
}

func TestSearchUsesCacheAndInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	backend := newFakeRedis()
	svc := newTestService(t, NewMemoryRepository(), newRedisSearchCache(backend, time.Minute))

	_, err := svc.Create(ctx, Input{SKU: "CBL-1", ProductName: "Copper cable", Description: "2.5mm"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{SKU: "PIP-1", ProductName: "PVC pipe"})
	require.NoError(t, err)

	first, err := svc.Search(ctx, "session-1", "cable")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.Len(t, first.Items, 1)
	assert.Equal(t, "CBL-1", first.Items[0].SKU)
	assert.NotZero(t, first.Sequence)

	second, err := svc.Search(ctx, "session-1", "  CABLE ")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	require.Len(t, second.Items, 1)
	assert.Equal(t, first.Items[0].ID, second.Items[0].ID)
	assert.Equal(t, "Copper cable", second.Items[0].ProductName)

	_, err = svc.Create(ctx, Input{SKU: "CBL-2", ProductName: "Aluminium cable"})
	require.NoError(t, err)

	third, err := svc.Search(ctx, "session-1", "cable")
	require.NoError(t, err)
	assert.False(t, third.Cached, "catalog writes bump the cache version")
	assert.Len(t, third.Items, 2)
	assert.Greater(t, third.Sequence, first.Sequence)
}

func TestSearchSupersededByNewerQuery(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(ServiceParams{Repo: NewMemoryRepository(), Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{ProductName: "Copper cable"})
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Search(ctx, "session-1", "cop")
		errCh <- err
	}()
	time.Sleep(10 * time.Millisecond)

	latest, err := svc.Search(ctx, "session-1", "copper")
	require.NoError(t, err)
	assert.Equal(t, "copper", latest.Query)
	assert.Len(t, latest.Items, 1)
	assert.True(t, IsSuperseded(<-errCh))
}

func TestRedisSearchCacheMissAndCorruptEntry(t *testing.T) {
	ctx := context.Background()
	backend := newFakeRedis()
	cache := newRedisSearchCache(backend, time.Minute)

	_, ok, err := cache.Get(ctx, "bolt")
	require.NoError(t, err)
	assert.False(t, ok)

	backend.data[backend.ProductSearchKey(0, "bolt")] = "{not json"
	_, ok, err = cache.Get(ctx, "bolt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "bolt", nil))
	items, ok, err := cache.Get(ctx, "bolt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, items)

	require.NoError(t, cache.Invalidate(ctx))
	_, ok, err = cache.Get(ctx, "bolt")
	require.NoError(t, err)
	assert.False(t, ok)
}
