package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
	"github.com/angelmondragon/quotebuilder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	redisclient "github.com/angelmondragon/quotebuilder-backend/pkg/redis"
)

// DefaultSessionTTL bounds how long an untouched session is kept.
const DefaultSessionTTL = 12 * time.Hour

// Session is one editing session: a single working document plus its load state.
type Session struct {
	ID    string            `json:"id"`
	State enums.EditorState `json:"state"`
	// PlaceholderID is the client-side id given to a document that has never
	// been saved; zero once the document exists in the store.
	PlaceholderID int64                `json:"placeholderId"`
	Document      quotations.Quotation `json:"document"`
	Error         *SessionError        `json:"error,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// SessionError records why the last load failed.
type SessionError struct {
	Code    pkgerrors.Code `json:"code"`
	Message string         `json:"message"`
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// SessionStore persists sessions between requests.
type SessionStore interface {
	// Create stores a new session and fails with CONFLICT if the id is taken.
	Create(ctx context.Context, s *Session) error
	// Get returns the session or NOT_FOUND, refreshing its TTL.
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

func sessionNotFound(id string) error {
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "editor session %s not found", id)
}

type redisSessions interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	EditorSessionKey(sessionID string) string
}

// RedisSessionStore keeps sessions as JSON values with a sliding TTL.
type RedisSessionStore struct {
	store redisSessions
	ttl   time.Duration
}

// NewRedisSessionStore constructs a session store backed by Redis.
func NewRedisSessionStore(client *redisclient.Client, ttl time.Duration) (*RedisSessionStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newRedisSessionStore(client, ttl), nil
}

func newRedisSessionStore(store redisSessions, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{store: store, ttl: ttl}
}

func (r *RedisSessionStore) Create(ctx context.Context, s *Session) error {
	payload, err := encodeSession(s)
	if err != nil {
		return err
	}
	ok, err := r.store.SetNX(ctx, r.store.EditorSessionKey(s.ID), payload, r.ttl)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: create editor session")
	}
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "editor session %s already exists", s.ID)
	}
	return nil
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, sessionNotFound(id)
	}
	key := r.store.EditorSessionKey(id)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, sessionNotFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: load editor session")
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode editor session")
	}
	if _, err := r.store.Expire(ctx, key, r.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: refresh editor session")
	}
	return &s, nil
}

func (r *RedisSessionStore) Put(ctx context.Context, s *Session) error {
	payload, err := encodeSession(s)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.store.EditorSessionKey(s.ID), payload, r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: store editor session")
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.store.EditorSessionKey(id)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: delete editor session")
	}
	return nil
}

func encodeSession(s *Session) ([]byte, error) {
	if s == nil || strings.TrimSpace(s.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "editor session id is required")
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode editor session")
	}
	return payload, nil
}

// MemorySessionStore keeps sessions in process. Entries expire after the TTL
// since their last access.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemorySessionStore builds an empty in-process store.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessionStore{ttl: ttl, now: time.Now, sessions: map[string]memoryEntry{}}
}

// WithClock overrides the expiry clock.
func (m *MemorySessionStore) WithClock(now func() time.Time) *MemorySessionStore {
	m.now = now
	return m
}

func (m *MemorySessionStore) Create(_ context.Context, s *Session) error {
	payload, err := encodeSession(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(s.ID); ok {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "editor session %s already exists", s.ID)
	}
	m.sessions[s.ID] = memoryEntry{payload: payload, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.live(id)
	if !ok {
		return nil, sessionNotFound(id)
	}
	entry.expiresAt = m.now().Add(m.ttl)
	m.sessions[id] = entry

	var s Session
	if err := json.Unmarshal(entry.payload, &s); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode editor session")
	}
	return &s, nil
}

func (m *MemorySessionStore) Put(_ context.Context, s *Session) error {
	payload, err := encodeSession(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = memoryEntry{payload: payload, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemorySessionStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, entry := range m.sessions {
		if !now.Before(entry.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// live returns the entry for id, dropping it when expired. Callers hold mu.
func (m *MemorySessionStore) live(id string) (memoryEntry, bool) {
	entry, ok := m.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.sessions, id)
		return memoryEntry{}, false
	}
	return entry, true
}
