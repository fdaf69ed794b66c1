// Package authority implements the document authority: the process hosting
// the real data. It owns the in-memory snapshot, applies every mutation under
// local (and, for centralized documents, distributed) mutual exclusion, and
// answers correlated requests from dependent worker processes.
package authority

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"

	"github.com/docwire/docwire/internal/pkg/distlock"
	"github.com/docwire/docwire/internal/pkg/document/coorderrors"
	"github.com/docwire/docwire/internal/pkg/document/lockstate"
	"github.com/docwire/docwire/internal/pkg/document/store"
	"github.com/docwire/docwire/internal/pkg/lock"
	"github.com/docwire/docwire/internal/pkg/log"
	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

type Config struct {
	// LocalLockTimeout bounds the wait for the per-document named mutex
	// shared by all mutation operations in the process.
	LocalLockTimeout time.Duration `configKey:"localLockTimeout"`
	// Lock configures the explicit lock/transaction state machine.
	Lock lockstate.Config `configKey:"lock"`
}

func NewConfig() Config {
	return Config{
		LocalLockTimeout: 10 * time.Second,
		Lock:             lockstate.NewConfig(),
	}
}

// Authority owns one document. It implements the document.Document contract
// and handles requests forwarded by worker proxies.
type Authority struct {
	logger   log.Logger
	clock    clockwork.Clock
	config   Config
	identity string
	store    store.Store
	locks    *lock.Registry
	state    *lockstate.Machine

	// dist is nil unless the document is backed by the centralized store.
	dist *distlock.Mutex
	// distDepth counts overlapping ownership windows of the distributed
	// mutex within this process: per-operation soft acquisitions and
	// transaction windows. The mutex is released when the count reaches zero.
	distMu    sync.Mutex
	distDepth int
}

func New(logger log.Logger, clock clockwork.Clock, config Config, identity string, s store.Store, locks *lock.Registry, dist *distlock.Mutex) *Authority {
	a := &Authority{
		logger:   logger.WithComponent("authority").With(attribute.String("document", identity)),
		clock:    clock,
		config:   config,
		identity: identity,
		store:    s,
		locks:    locks,
		dist:     dist,
	}
	a.state = lockstate.New(identity, a.logger, clock, config.Lock, nil)
	return a
}

func (a *Authority) Identity() string {
	return a.identity
}

// withExclusion runs fn under the per-document named mutex and, for
// centralized documents, under the distributed mutex. The distributed
// acquisition is skipped while this authority already holds the mutex,
// the named mutex alone guarantees a single writer within the process.
func (a *Authority) withExclusion(ctx context.Context, fn func(ctx context.Context) error) error {
	releaseLocal, err := a.locks.Acquire(ctx, a.identity, a.config.LocalLockTimeout)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return coorderrors.NewLockAcquisitionError(a.identity, a.config.LocalLockTimeout)
		}
		return err
	}
	defer releaseLocal()

	releaseDist, err := a.acquireDist(ctx)
	if err != nil {
		return err
	}
	defer releaseDist()

	return fn(ctx)
}

// acquireDist takes one ownership window of the distributed mutex.
// It is a no-op for non-centralized documents.
func (a *Authority) acquireDist(ctx context.Context) (func(), error) {
	if a.dist == nil {
		return func() {}, nil
	}

	a.distMu.Lock()
	defer a.distMu.Unlock()
	if a.distDepth == 0 {
		if err := a.dist.Lock(ctx); err != nil {
			return nil, err
		}
	}
	a.distDepth++

	var once sync.Once
	return func() {
		once.Do(a.releaseDist)
	}, nil
}

func (a *Authority) releaseDist() {
	a.distMu.Lock()
	defer a.distMu.Unlock()
	a.distDepth--
	if a.distDepth == 0 {
		if err := a.dist.Unlock(context.Background()); err != nil {
			a.logger.Errorf(context.Background(), "cannot release distributed mutex: %s", err)
		}
	}
}
