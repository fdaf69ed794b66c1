// Package lockstate implements the explicit lock/transaction state machine
// resident in the document authority.
//
// At most one lock token is outstanding per document at any instant. A token
// carries an expiry timer: if the holder disappears, expiry restores liveness
// for other callers. No revocation notice is sent to the original holder,
// which may still apply mutations it believes are protected, a known race.
//
// The orthogonal busy flag covers the window of a transaction invoked
// directly on the authority process, where no token exists.
package lockstate

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/docwire/docwire/internal/pkg/document/coorderrors"
	"github.com/docwire/docwire/internal/pkg/idgenerator"
	"github.com/docwire/docwire/internal/pkg/log"
)

type Config struct {
	// DefaultTTL is the token lifetime used when the caller supplies none.
	DefaultTTL time.Duration `configKey:"defaultTtl"`
	// WaitBudget bounds how long a request waits for a foreign token or the
	// busy flag before it fails with a lock-acquisition error.
	WaitBudget time.Duration `configKey:"waitBudget"`
}

func NewConfig() Config {
	return Config{
		DefaultTTL: 5 * time.Second,
		WaitBudget: 3 * time.Second,
	}
}

// OnRelease is invoked after a token leaves the machine,
// on explicit release or on expiry. It runs outside the machine's lock.
type OnRelease func(token string, expired bool)

// Machine tracks the lock state of one document.
type Machine struct {
	identity  string
	logger    log.Logger
	clock     clockwork.Clock
	config    Config
	onRelease OnRelease

	mu      sync.Mutex
	token   string
	release func() // per-token cleanup, runs once when the token leaves the machine
	expiry  clockwork.Timer
	busy    bool
	idle    chan struct{} // created by waiters, closed on any state change towards idle
}

func New(identity string, logger log.Logger, clock clockwork.Clock, config Config, onRelease OnRelease) *Machine {
	return &Machine{
		identity:  identity,
		logger:    logger.WithComponent("lockstate"),
		clock:     clock,
		config:    config,
		onRelease: onRelease,
	}
}

// Acquire mints a new token and starts its expiry timer. The release
// function, if any, runs exactly once when the token leaves the machine,
// on explicit release or on expiry. It is stored under the machine's mutex
// before the timer is armed, so even an immediate expiry cannot miss it.
func (m *Machine) Acquire(ctx context.Context, ttl time.Duration, release func()) (string, error) {
	if ttl <= 0 {
		ttl = m.config.DefaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" {
		return "", coorderrors.NewLockOwnershipError(`document "%s" is locked by another caller`, m.identity)
	}
	if m.busy {
		return "", coorderrors.NewLockOwnershipError(`document "%s" has a transaction in progress`, m.identity)
	}

	token := idgenerator.LockToken()
	m.token = token
	m.release = release
	m.expiry = m.clock.AfterFunc(ttl, func() {
		m.expire(token)
	})
	return token, nil
}

// Release clears the token after ownership checks.
func (m *Machine) Release(token string) error {
	m.mu.Lock()

	if m.token == "" {
		m.mu.Unlock()
		return coorderrors.NewLockOwnershipError(`document "%s" is not locked`, m.identity)
	}
	if m.token != token {
		m.mu.Unlock()
		return coorderrors.NewLockOwnershipError(`lock token mismatch for document "%s"`, m.identity)
	}

	m.expiry.Stop()
	m.expiry = nil
	m.token = ""
	release := m.release
	m.release = nil
	m.signalLocked()
	m.mu.Unlock()

	if release != nil {
		release()
	}
	if m.onRelease != nil {
		m.onRelease(token, false)
	}
	return nil
}

// Holds reports whether the token is the currently outstanding one.
func (m *Machine) Holds(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return token != "" && m.token == token
}

// Locked reports whether any token is outstanding.
func (m *Machine) Locked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != ""
}

// SetBusy claims the machine for a transaction running directly on the
// authority. The claim is atomic with the token state: it fails while a lock
// token is outstanding or another transaction already holds the machine, so
// two exclusion windows can never overlap.
func (m *Machine) SetBusy() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != "" {
		return coorderrors.NewLockOwnershipError(`document "%s" is locked by another caller`, m.identity)
	}
	if m.busy {
		return coorderrors.NewLockOwnershipError(`document "%s" has a transaction in progress`, m.identity)
	}
	m.busy = true
	return nil
}

// ClearBusy ends the authority-busy window and wakes waiters.
func (m *Machine) ClearBusy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false
	m.signalLocked()
}

// WaitIdle blocks until the machine admits a caller presenting the token:
// immediately when the token matches the outstanding one, otherwise when no
// token is outstanding and the busy flag is clear. The wait is bounded by the
// configured budget, waking on release, expiry or busy-clear rather than by
// polling.
func (m *Machine) WaitIdle(ctx context.Context, token string) error {
	timeout := m.clock.NewTimer(m.config.WaitBudget)
	defer timeout.Stop()

	for {
		m.mu.Lock()
		if m.admissibleLocked(token) {
			m.mu.Unlock()
			return nil
		}
		idle := m.idleChanLocked()
		m.mu.Unlock()

		select {
		case <-idle:
			// Re-check the state.
		case <-timeout.Chan():
			return coorderrors.NewLockAcquisitionError(m.identity, m.config.WaitBudget)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Machine) admissibleLocked(token string) bool {
	if token != "" && m.token == token {
		return true
	}
	return m.token == "" && !m.busy
}

func (m *Machine) idleChanLocked() chan struct{} {
	if m.idle == nil {
		m.idle = make(chan struct{})
	}
	return m.idle
}

func (m *Machine) signalLocked() {
	if m.idle != nil {
		close(m.idle)
		m.idle = nil
	}
}

func (m *Machine) expire(token string) {
	m.mu.Lock()
	if m.token != token {
		// Released in the meantime.
		m.mu.Unlock()
		return
	}
	m.expiry = nil
	m.token = ""
	release := m.release
	m.release = nil
	m.signalLocked()
	m.mu.Unlock()

	m.logger.Warnf(context.Background(), `lock token for document "%s" expired, the holder is not notified`, m.identity)
	if release != nil {
		release()
	}
	if m.onRelease != nil {
		m.onRelease(token, true)
	}
}
