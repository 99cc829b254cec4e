package products

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
)

// DefaultDebounce is the wait applied before a lookup runs.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer delays keyed calls and lets only the newest call per key deliver
// a result. Every call is tagged with a sequence number; a call whose number
// is no longer the latest for its key returns a SUPERSEDED error, and a newer
// call cancels the pending wait or in-flight lookup of the older one.
type Debouncer[T any] struct {
	delay time.Duration

	mu      sync.Mutex
	seq     uint64
	pending map[string]*debounced
}

type debounced struct {
	seq        uint64
	timer      *time.Timer
	cancel     context.CancelFunc
	superseded bool
}

// NewDebouncer builds a Debouncer; non-positive delays use DefaultDebounce.
func NewDebouncer[T any](delay time.Duration) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer[T]{delay: delay, pending: map[string]*debounced{}}
}

// Do waits out the delay, then runs fn unless a newer call for key arrived.
func (d *Debouncer[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mu.Lock()
	d.seq++
	mine := &debounced{seq: d.seq, timer: time.NewTimer(d.delay), cancel: cancel}
	if prev := d.pending[key]; prev != nil {
		prev.superseded = true
		prev.timer.Stop()
		prev.cancel()
	}
	d.pending[key] = mine
	d.mu.Unlock()

	defer d.release(key, mine)

	select {
	case <-mine.timer.C:
	case <-callCtx.Done():
		mine.timer.Stop()
		if err := ctx.Err(); err != nil && !d.superseded(mine) {
			return zero, err
		}
		return zero, supersededError()
	}

	result, err := fn(callCtx)
	if d.superseded(mine) {
		return zero, supersededError()
	}
	if err != nil {
		return zero, err
	}
	return result, nil
}

// Latest returns the sequence number of the newest call for key, or zero.
func (d *Debouncer[T]) Latest(key string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p := d.pending[key]; p != nil {
		return p.seq
	}
	return 0
}

// Stop cancels every pending call; their callers get SUPERSEDED.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, p := range d.pending {
		p.superseded = true
		p.timer.Stop()
		p.cancel()
		delete(d.pending, key)
	}
}

func (d *Debouncer[T]) superseded(mine *debounced) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return mine.superseded
}

func (d *Debouncer[T]) release(key string, mine *debounced) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if current := d.pending[key]; current != nil && current.seq == mine.seq {
		delete(d.pending, key)
	}
}

// IsSuperseded reports whether err came from a call replaced by a newer one.
func IsSuperseded(err error) bool {
	return pkgerrors.IsCode(err, pkgerrors.CodeSuperseded)
}

func supersededError() error {
	return pkgerrors.New(pkgerrors.CodeSuperseded, "lookup superseded by a newer request")
}
