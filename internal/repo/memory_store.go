package repo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
)

// MemoryAccessors tell a MemoryStore how to read and stamp records of type T.
type MemoryAccessors[T any] struct {
	ID        func(*T) int64
	SetID     func(*T, int64)
	CreatedAt func(*T) time.Time
	// Stamp writes the creation and update timestamps.
	Stamp func(rec *T, createdAt, updatedAt time.Time)
	// Match applies Filter.Query and Filter.Equals; nil matches everything.
	Match func(rec *T, filter Filter) bool
	// Less orders List output; nil keeps newest first.
	Less func(a, b *T) bool
}

// MemoryStore is an in-process Store used for local runs and tests.
// Ids are assigned as max(existing)+1.
type MemoryStore[T any] struct {
	mu     sync.RWMutex
	entity string
	rows   []T
	acc    MemoryAccessors[T]
	now    func() time.Time
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore[T any](entity string, acc MemoryAccessors[T]) *MemoryStore[T] {
	if entity == "" {
		entity = "record"
	}
	return &MemoryStore[T]{entity: entity, acc: acc, now: time.Now}
}

// WithClock overrides the timestamp source.
func (s *MemoryStore[T]) WithClock(now func() time.Time) *MemoryStore[T] {
	s.now = now
	return s
}

func (s *MemoryStore[T]) List(_ context.Context, filter Filter) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.rows))
	for i := range s.rows {
		rec := s.rows[i]
		if s.acc.Match != nil && !s.acc.Match(&rec, filter) {
			continue
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if s.acc.Less != nil {
			return s.acc.Less(&out[i], &out[j])
		}
		return s.newer(&out[i], &out[j])
	})

	if filter.Cursor != nil && s.acc.Less == nil && s.acc.CreatedAt != nil {
		trimmed := out[:0]
		for i := range out {
			created := s.acc.CreatedAt(&out[i])
			id := s.acc.ID(&out[i])
			if created.Before(filter.Cursor.CreatedAt) || (created.Equal(filter.Cursor.CreatedAt) && id < filter.Cursor.ID) {
				trimmed = append(trimmed, out[i])
			}
		}
		out = trimmed
	}

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore[T]) GetByID(_ context.Context, id int64) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, s.notFound(id)
	}
	rec := s.rows[idx]
	return &rec, nil
}

func (s *MemoryStore[T]) Create(_ context.Context, rec *T) (*T, error) {
	if rec == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, s.entity+" is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var maxID int64
	for i := range s.rows {
		if id := s.acc.ID(&s.rows[i]); id > maxID {
			maxID = id
		}
	}
	s.acc.SetID(rec, maxID+1)
	if s.acc.Stamp != nil {
		now := s.now()
		s.acc.Stamp(rec, now, now)
	}
	s.rows = append(s.rows, *rec)
	out := *rec
	return &out, nil
}

func (s *MemoryStore[T]) Update(_ context.Context, id int64, rec *T) (*T, error) {
	if rec == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, s.entity+" is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, s.notFound(id)
	}
	next := *rec
	s.acc.SetID(&next, id)
	if s.acc.Stamp != nil {
		created := s.now()
		if s.acc.CreatedAt != nil {
			created = s.acc.CreatedAt(&s.rows[idx])
		}
		s.acc.Stamp(&next, created, s.now())
	}
	s.rows[idx] = next
	out := next
	return &out, nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	s.rows = append(s.rows[:idx], s.rows[idx+1:]...)
	return true, nil
}

func (s *MemoryStore[T]) indexOf(id int64) int {
	for i := range s.rows {
		if s.acc.ID(&s.rows[i]) == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore[T]) newer(a, b *T) bool {
	if s.acc.CreatedAt != nil {
		ca, cb := s.acc.CreatedAt(a), s.acc.CreatedAt(b)
		if !ca.Equal(cb) {
			return ca.After(cb)
		}
	}
	return s.acc.ID(a) > s.acc.ID(b)
}

func (s *MemoryStore[T]) notFound(id int64) error {
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "%s %d not found", s.entity, id)
}

// MatchQuery reports whether the trimmed query is a case-insensitive substring
// of any field. An empty query matches everything.
func MatchQuery(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
