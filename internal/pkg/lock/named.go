// Package lock provides a local named mutex: executions sharing the same name
// within one process are serialized. An acquisition that cannot proceed
// within the timeout fails instead of waiting forever.
package lock

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

// ErrTimeout is reported when the lock cannot be acquired within the timeout.
var ErrTimeout = errors.New("named lock: acquisition timeout")

// Registry holds one weight-1 semaphore per name.
// The zero value is not usable, use NewRegistry.
type Registry struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

func NewRegistry() *Registry {
	return &Registry{sems: make(map[string]*semaphore.Weighted)}
}

// Acquire blocks until the named lock is free or the timeout elapses.
// On success it returns a release function that must be called exactly once.
func (r *Registry) Acquire(ctx context.Context, name string, timeout time.Duration) (func(), error) {
	sem := r.semaphore(name)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sem.Acquire(ctx, 1); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Wrapf(ErrTimeout, `lock "%s", timeout %s`, name, timeout)
		}
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			sem.Release(1)
		})
	}, nil
}

func (r *Registry) semaphore(name string) *semaphore.Weighted {
	r.mu.Lock()
	defer r.mu.Unlock()
	sem, found := r.sems[name]
	if !found {
		sem = semaphore.NewWeighted(1)
		r.sems[name] = sem
	}
	return sem
}
