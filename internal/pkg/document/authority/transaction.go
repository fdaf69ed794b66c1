package authority

import (
	"context"
	"time"

	"github.com/docwire/docwire/internal/pkg/document"
	"github.com/docwire/docwire/internal/pkg/document/coorderrors"
	"github.com/docwire/docwire/internal/pkg/document/protocol"
	"github.com/docwire/docwire/internal/pkg/document/selector"
	"github.com/docwire/docwire/internal/pkg/lock"
	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

// Transaction runs fn with exclusive ownership of the document. The named
// mutex and the distributed mutex are held for the whole window, so the
// callback observes and mutates a consistent snapshot. The ttl only bounds
// remote token windows, a local transaction ends when fn returns, therefore
// it is ignored here. An error from fn aborts nothing already persisted,
// operations apply immediately, but it is propagated to the caller.
func (a *Authority) Transaction(ctx context.Context, _ time.Duration, fn document.TransactionFunc) error {
	// Claim the busy flag atomically against the token state: an outstanding
	// remote window must finish first, and a minted token between our idle
	// check and the claim fails the claim, so the windows never overlap.
	for {
		if err := a.state.WaitIdle(ctx, ""); err != nil {
			return err
		}
		err := a.state.SetBusy()
		if err == nil {
			break
		}
		var ownershipErr coorderrors.LockOwnershipError
		if errors.As(err, &ownershipErr) {
			// Lost the race with another window, wait for the next one.
			continue
		}
		return err
	}
	defer a.state.ClearBusy()

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

	return fn(ctx, &txnHandle{authority: a})
}

// txnHandle is the document view passed to a transaction callback. The
// exclusion is already held by the enclosing Transaction call, so operations
// go straight to the apply bodies, avoiding a self-deadlock on the
// non-reentrant mutexes.
type txnHandle struct {
	authority *Authority
}

var _ document.Document = (*txnHandle)(nil)

func (h *txnHandle) Identity() string {
	return h.authority.identity
}

func (h *txnHandle) Get(ctx context.Context, sel selector.Selector) (any, error) {
	return h.authority.applyGet(ctx, sel)
}

func (h *txnHandle) Set(ctx context.Context, sel selector.Selector, key string, value any) (bool, error) {
	return h.authority.applySet(ctx, sel, key, value)
}

func (h *txnHandle) Push(ctx context.Context, sel selector.Selector, value any) (bool, error) {
	return h.authority.applyInsert(ctx, sel, value, false)
}

func (h *txnHandle) Unshift(ctx context.Context, sel selector.Selector, value any) (bool, error) {
	return h.authority.applyInsert(ctx, sel, value, true)
}

func (h *txnHandle) Pop(ctx context.Context, sel selector.Selector) (any, bool, error) {
	return h.authority.applyTake(ctx, sel, true)
}

func (h *txnHandle) Shift(ctx context.Context, sel selector.Selector) (any, bool, error) {
	return h.authority.applyTake(ctx, sel, false)
}

func (h *txnHandle) Splice(ctx context.Context, sel selector.Selector, start, count int) ([]any, bool, error) {
	return h.authority.applySplice(ctx, sel, start, count)
}

func (h *txnHandle) RemoveItemFromArray(ctx context.Context, sel selector.Selector, item any, matchKey string) (bool, error) {
	return h.authority.applyRemoveItem(ctx, sel, item, matchKey)
}

func (h *txnHandle) UpdateItemInArray(ctx context.Context, sel selector.Selector, item, updatedItem any, matchKey string) (bool, error) {
	return h.authority.applyUpdateItem(ctx, sel, item, updatedItem, matchKey)
}

func (h *txnHandle) Batch(ctx context.Context, queries []protocol.Query) error {
	return h.authority.applyBatch(ctx, queries)
}

func (h *txnHandle) ReplaceAll(ctx context.Context, content any) error {
	return h.authority.applyReplaceAll(ctx, content)
}

// Transaction nested inside a transaction runs the callback directly,
// the exclusion is already owned by the outer window.
func (h *txnHandle) Transaction(ctx context.Context, _ time.Duration, fn document.TransactionFunc) error {
	return fn(ctx, h)
}
