package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/quotebuilder-backend/pkg/config"
)

func TestEditorSessionKeyLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCommands()
	client := &Client{cmd: mock}

	key := client.EditorSessionKey("sess-1")
	created, err := client.SetNX(ctx, key, `{"id":"sess-1"}`, time.Hour)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = client.SetNX(ctx, key, `{"id":"other"}`, time.Hour)
	require.NoError(t, err)
	assert.False(t, created, "second SetNX must not overwrite")

	raw, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"sess-1"}`, raw)

	_, err = client.Expire(ctx, key, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, mock.ttl[key])

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.True(t, IsNil(err))
	require.NoError(t, client.Del(ctx))
}

func TestCounterAndBump(t *testing.T) {
	ctx := context.Background()
	mock := newMockCommands()
	client := &Client{cmd: mock}

	n, err := client.Counter(ctx, "catalog_version")
	require.NoError(t, err)
	assert.Zero(t, n, "unset counters read as zero")

	for want := int64(1); want <= 3; want++ {
		got, err := client.Bump(ctx, "catalog_version")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	n, err = client.Counter(ctx, "catalog_version")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	mock.data["qb:counter:broken"] = "abc"
	n, err = client.Counter(ctx, "broken")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestZeroClientIsNotReady(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	assert.ErrorIs(t, client.Ping(ctx), ErrNotReady)
	_, err := client.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = client.Bump(ctx, "k")
	assert.ErrorIs(t, err, ErrNotReady)
	assert.NoError(t, client.Close())
}

func TestKeys(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "qb:counter:hits", counterKey("hits"))
	assert.Equal(t, "qb:editor_session:abc", client.EditorSessionKey("abc"))
	assert.Equal(t, "qb:product_search:v3:widget", client.ProductSearchKey(3, " Widget "))
	assert.Equal(t, "qb:product_search:v1", client.ProductSearchKey(1, ""), "empty parts are skipped")
}

func TestClientOptions(t *testing.T) {
	_, err := clientOptions(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := clientOptions(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = clientOptions(config.RedisConfig{Address: "cache:6379", DB: 4, MinIdleConns: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 4, opts.DB)
	assert.Equal(t, 2, opts.MinIdleConns)

	_, err = clientOptions(config.RedisConfig{URL: "http://nope"})
	assert.Error(t, err)
}

type mockCommands struct {
	data map[string]string
	ttl  map[string]time.Duration
	incr map[string]int64
}

func newMockCommands() *mockCommands {
	return &mockCommands{
		data: map[string]string{},
		ttl:  map[string]time.Duration{},
		incr: map[string]int64{},
	}
}

func (m *mockCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCommands) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCommands) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttl[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCommands) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, ok := m.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttl[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *mockCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	m.data[key] = fmt.Sprint(m.incr[key])
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCommands) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.ttl[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *mockCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
