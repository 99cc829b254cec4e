package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
	"github.com/angelmondragon/quotebuilder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
)

type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return "", f.failGet
	}
	v, ok := f.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = toString(value)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = toString(value)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeRedis) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; !ok {
		return false, nil
	}
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
		delete(f.ttls, key)
	}
	return nil
}

func (f *fakeRedis) EditorSessionKey(id string) string {
	return "qb:editor_session:" + id
}

func toString(value any) string {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(value)
}

func sampleSession(id string) *Session {
	doc := quotations.NewEmpty(created)
	doc.ClientInfo.Name = "Acme"
	return &Session{
		ID:            id,
		State:         enums.EditorStateReady,
		PlaceholderID: doc.ID,
		Document:      doc,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func storesUnderTest(t *testing.T) map[string]SessionStore {
	t.Helper()
	return map[string]SessionStore{
		"redis":  newRedisSessionStore(newFakeRedis(), time.Hour),
		"memory": NewMemorySessionStore(time.Hour),
	}
}

func TestSessionStoreRoundTrip(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := sampleSession("s-1")

			require.NoError(t, store.Create(ctx, sess))
			err := store.Create(ctx, sess)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

			got, err := store.Get(ctx, "s-1")
			require.NoError(t, err)
			assert.Equal(t, enums.EditorStateReady, got.State)
			assert.Equal(t, "Acme", got.Document.ClientInfo.Name)
			assert.Equal(t, sess.PlaceholderID, got.PlaceholderID)
			assert.Equal(t, sess.Document.Terms, got.Document.Terms)

			got.Document.ClientInfo.Name = "Globex"
			require.NoError(t, store.Put(ctx, got))
			again, err := store.Get(ctx, "s-1")
			require.NoError(t, err)
			assert.Equal(t, "Globex", again.Document.ClientInfo.Name)

			require.NoError(t, store.Delete(ctx, "s-1"))
			_, err = store.Get(ctx, "s-1")
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
		})
	}
}

func TestSessionStoreRejectsMissingID(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Put(context.Background(), &Session{})
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestRedisSessionStoreRefreshesTTLAndMapsErrors(t *testing.T) {
	ctx := context.Background()
	backend := newFakeRedis()
	store := newRedisSessionStore(backend, 0)
	require.NoError(t, store.Create(ctx, sampleSession("s-1")))
	key := backend.EditorSessionKey("s-1")
	assert.Equal(t, DefaultSessionTTL, backend.ttls[key])

	backend.ttls[key] = time.Second
	_, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionTTL, backend.ttls[key], "reads slide the expiry")

	backend.data[key] = "{broken"
	_, err = store.Get(ctx, "s-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))

	backend.failGet = errors.New("connection refused")
	_, err = store.Get(ctx, "s-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestMemorySessionStoreExpires(t *testing.T) {
	ctx := context.Background()
	now := created
	store := NewMemorySessionStore(time.Minute).WithClock(func() time.Time { return now })

	require.NoError(t, store.Create(ctx, sampleSession("s-1")))
	require.NoError(t, store.Create(ctx, sampleSession("s-2")))

	now = now.Add(45 * time.Second)
	_, err := store.Get(ctx, "s-1")
	require.NoError(t, err, "access refreshes the expiry")

	now = now.Add(30 * time.Second)
	_, err = store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Sweep(), "s-2 expired")

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "s-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.NoError(t, store.Create(ctx, sampleSession("s-1")), "expired ids can be reused")
}
