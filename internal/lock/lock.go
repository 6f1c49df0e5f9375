// Package lock provides named non-blocking job locks.
package lock

import (
	"context"
	"sync"
)

// Job lock names.
const (
	Extract   = "catalog-import:extract"
	Transform = "catalog-import:transform"
)

// Locker hands out named locks. TryLock never waits: ok is false when the
// lock is held elsewhere. release must be called once when ok is true.
type Locker interface {
	TryLock(ctx context.Context, name string) (release func(), ok bool, err error)
}

// Local is an in-process Locker.
type Local struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocal returns a Local locker.
func NewLocal() *Local {
	return &Local{held: make(map[string]bool)}
}

func (l *Local) TryLock(ctx context.Context, name string) (func(), bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, false, nil
	}
	l.held[name] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, name)
			l.mu.Unlock()
		})
	}, true, nil
}
