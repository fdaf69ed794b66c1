package authority

import (
	"context"
	"time"

	"github.com/docwire/docwire/internal/pkg/document/coorderrors"
	"github.com/docwire/docwire/internal/pkg/document/protocol"
	"github.com/docwire/docwire/internal/pkg/document/selector"
	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

// HandleRequest executes one forwarded request and always produces exactly
// one response with the request's correlation id. A panic in the handler is
// converted to an error response, the worker must never wait forever.
func (a *Authority) HandleRequest(ctx context.Context, req *protocol.Request) (resp *protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Errorf(ctx, `panic while handling request "%s": %v`, req.CorrelationID, r)
			resp = protocol.NewErrorResponse(req.CorrelationID, errors.Errorf(`internal error: %v`, r))
		}
	}()

	switch req.Query.Op {
	case protocol.OpLock:
		return a.handleLock(ctx, req)
	case protocol.OpRelease:
		return a.handleRelease(req)
	case protocol.OpGet:
		// Reads are best-effort, they are not gated by the lock state.
		value, err := a.applyGet(ctx, selector.Selector(req.Query.Selector))
		if err != nil {
			return protocol.NewErrorResponse(req.CorrelationID, err)
		}
		return protocol.NewResultResponse(req.CorrelationID, true, value)
	default:
		return a.handleMutation(ctx, req)
	}
}

// handleLock mints a token for a remote window. For centralized documents
// the distributed mutex is held for the whole window and released together
// with the token, on explicit release or on expiry.
func (a *Authority) handleLock(ctx context.Context, req *protocol.Request) *protocol.Response {
	if req.LockToken != "" && a.state.Holds(req.LockToken) {
		return protocol.NewErrorResponse(
			req.CorrelationID,
			coorderrors.NewLockOwnershipError(`the caller already holds the lock on document "%s"`, a.identity),
		)
	}

	for {
		if err := a.state.WaitIdle(ctx, ""); err != nil {
			return protocol.NewErrorResponse(req.CorrelationID, err)
		}

		releaseDist, err := a.acquireDist(ctx)
		if err != nil {
			return protocol.NewErrorResponse(req.CorrelationID, err)
		}

		// The release function travels with the token: the machine stores it
		// before the expiry timer is armed, so even an immediate expiry ends
		// the distributed hold.
		token, err := a.state.Acquire(ctx, time.Duration(req.Query.TTLMs)*time.Millisecond, releaseDist)
		if err != nil {
			releaseDist()
			var ownershipErr coorderrors.LockOwnershipError
			if errors.As(err, &ownershipErr) {
				// Lost the race with another request, wait for the next window.
				continue
			}
			return protocol.NewErrorResponse(req.CorrelationID, err)
		}

		return protocol.NewResultResponse(req.CorrelationID, true, token)
	}
}

func (a *Authority) handleRelease(req *protocol.Request) *protocol.Response {
	if err := a.state.Release(req.LockToken); err != nil {
		return protocol.NewErrorResponse(req.CorrelationID, err)
	}
	return protocol.NewResultResponse(req.CorrelationID, true, nil)
}

// handleMutation gates the request on the lock state: a matching token is
// admitted into its own window, anything else waits for an idle document.
func (a *Authority) handleMutation(ctx context.Context, req *protocol.Request) *protocol.Response {
	if err := a.state.WaitIdle(ctx, req.LockToken); err != nil {
		var acquisitionErr coorderrors.LockAcquisitionError
		if req.LockToken != "" && errors.As(err, &acquisitionErr) {
			// The presented token is stale, the document belongs to someone else.
			err = coorderrors.NewLockOwnershipError(`lock token mismatch for document "%s"`, a.identity)
		}
		return protocol.NewErrorResponse(req.CorrelationID, err)
	}

	ok, result, err := a.applyQuery(ctx, req.Query)
	if err != nil {
		return protocol.NewErrorResponse(req.CorrelationID, err)
	}
	return protocol.NewResultResponse(req.CorrelationID, ok, result)
}

// applyQuery maps a mutation query to the corresponding operation. The
// operations take the exclusion themselves, a window admitted by a token
// already holds the distributed mutex, so only the named mutex is taken.
func (a *Authority) applyQuery(ctx context.Context, q protocol.Query) (bool, any, error) {
	sel := selector.Selector(q.Selector)
	switch q.Op {
	case protocol.OpSet:
		ok, err := a.Set(ctx, sel, q.Key, q.Value)
		return ok, nil, err
	case protocol.OpPush:
		ok, err := a.Push(ctx, sel, q.Value)
		return ok, nil, err
	case protocol.OpUnshift:
		ok, err := a.Unshift(ctx, sel, q.Value)
		return ok, nil, err
	case protocol.OpPop:
		value, ok, err := a.Pop(ctx, sel)
		return ok, value, err
	case protocol.OpShift:
		value, ok, err := a.Shift(ctx, sel)
		return ok, value, err
	case protocol.OpSplice:
		removed, ok, err := a.Splice(ctx, sel, q.Start, q.Count)
		return ok, removed, err
	case protocol.OpRemoveItemFromArray:
		ok, err := a.RemoveItemFromArray(ctx, sel, q.Item, q.MatchKey)
		return ok, nil, err
	case protocol.OpUpdateItemInArray:
		ok, err := a.UpdateItemInArray(ctx, sel, q.Item, q.UpdatedItem, q.MatchKey)
		return ok, nil, err
	case protocol.OpBatch:
		err := a.Batch(ctx, q.Queries)
		return err == nil, nil, err
	case protocol.OpReplaceAll:
		err := a.ReplaceAll(ctx, q.Content)
		return err == nil, nil, err
	default:
		return false, nil, coorderrors.NewConfigurationError(`unsupported operation "%s"`, q.Op)
	}
}
