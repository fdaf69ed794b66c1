package distlock

import (
	"context"

	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

// Mutex is a distributed mutex: acquire blocks callers on all hosts sharing
// the same name until release or until the holder's session lease expires.
type Mutex struct {
	name  string
	inner *concurrency.Mutex
}

func (m *Mutex) Name() string {
	return m.name
}

func (m *Mutex) Lock(ctx context.Context) error {
	if err := m.inner.Lock(ctx); err != nil {
		return errors.Wrapf(err, `cannot acquire distributed lock "%s"`, m.name)
	}
	return nil
}

func (m *Mutex) TryLock(ctx context.Context) error {
	if err := m.inner.TryLock(ctx); err != nil {
		if errors.Is(err, concurrency.ErrLocked) {
			return AlreadyLockedError{name: m.name}
		}
		return errors.Wrapf(err, `cannot acquire distributed lock "%s"`, m.name)
	}
	return nil
}

func (m *Mutex) Unlock(ctx context.Context) error {
	if err := m.inner.Unlock(ctx); err != nil {
		return errors.Wrapf(err, `cannot release distributed lock "%s"`, m.name)
	}
	return nil
}

// AlreadyLockedError is reported by TryLock when another caller holds the lock.
type AlreadyLockedError struct {
	name string
}

func (e AlreadyLockedError) Error() string {
	return `distributed lock "` + e.name + `" is already locked`
}
