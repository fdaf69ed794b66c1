package proxy

import (
	"context"
	"sync"
	"time"

	"github.com/docwire/docwire/internal/pkg/document"
	"github.com/docwire/docwire/internal/pkg/document/protocol"
	"github.com/docwire/docwire/internal/pkg/document/selector"
	"github.com/docwire/docwire/internal/pkg/document/values"
	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

// Document is the worker-side handle of a document hosted elsewhere. It
// implements the same contract as the authority, every call crosses the
// channel. A transaction acquires a lock token that is attached to all
// requests made within the callback.
type Document struct {
	client   *Client
	identity string

	mu    sync.Mutex
	token string
}

var _ document.Document = (*Document)(nil)

func NewDocument(client *Client, identity string) *Document {
	return &Document{client: client, identity: identity}
}

func (d *Document) Identity() string {
	return d.identity
}

func (d *Document) Get(ctx context.Context, sel selector.Selector) (any, error) {
	resp, err := d.call(ctx, protocol.Query{Op: protocol.OpGet, Selector: sel})
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

func (d *Document) Set(ctx context.Context, sel selector.Selector, key string, value any) (bool, error) {
	return d.mutate(ctx, protocol.Query{Op: protocol.OpSet, Selector: sel, Key: key, Value: value})
}

func (d *Document) Push(ctx context.Context, sel selector.Selector, value any) (bool, error) {
	return d.mutate(ctx, protocol.Query{Op: protocol.OpPush, Selector: sel, Value: value})
}

func (d *Document) Unshift(ctx context.Context, sel selector.Selector, value any) (bool, error) {
	return d.mutate(ctx, protocol.Query{Op: protocol.OpUnshift, Selector: sel, Value: value})
}

func (d *Document) Pop(ctx context.Context, sel selector.Selector) (any, bool, error) {
	return d.take(ctx, protocol.Query{Op: protocol.OpPop, Selector: sel})
}

func (d *Document) Shift(ctx context.Context, sel selector.Selector) (any, bool, error) {
	return d.take(ctx, protocol.Query{Op: protocol.OpShift, Selector: sel})
}

func (d *Document) Splice(ctx context.Context, sel selector.Selector, start, count int) ([]any, bool, error) {
	resp, err := d.call(ctx, protocol.Query{Op: protocol.OpSplice, Selector: sel, Start: start, Count: count})
	if err != nil {
		return nil, false, err
	}
	if !resp.OK {
		return nil, false, nil
	}
	removed, _ := values.Sequence(resp.Result)
	return removed, true, nil
}

func (d *Document) RemoveItemFromArray(ctx context.Context, sel selector.Selector, item any, matchKey string) (bool, error) {
	return d.mutate(ctx, protocol.Query{Op: protocol.OpRemoveItemFromArray, Selector: sel, Item: item, MatchKey: matchKey})
}

func (d *Document) UpdateItemInArray(ctx context.Context, sel selector.Selector, item, updatedItem any, matchKey string) (bool, error) {
	return d.mutate(ctx, protocol.Query{Op: protocol.OpUpdateItemInArray, Selector: sel, Item: item, UpdatedItem: updatedItem, MatchKey: matchKey})
}

func (d *Document) Batch(ctx context.Context, queries []protocol.Query) error {
	_, err := d.call(ctx, protocol.Query{Op: protocol.OpBatch, Queries: queries})
	return err
}

func (d *Document) ReplaceAll(ctx context.Context, content any) error {
	_, err := d.call(ctx, protocol.Query{Op: protocol.OpReplaceAll, Content: content})
	return err
}

// Transaction acquires the document's lock token, runs fn with this handle,
// and always releases the token afterwards. The callback's error is
// propagated to the caller. A transaction nested in an already open window
// runs the callback directly.
func (d *Document) Transaction(ctx context.Context, ttl time.Duration, fn document.TransactionFunc) error {
	d.mu.Lock()
	alreadyOpen := d.token != ""
	d.mu.Unlock()
	if alreadyOpen {
		return fn(ctx, d)
	}

	resp, err := d.call(ctx, protocol.Query{Op: protocol.OpLock, TTLMs: ttl.Milliseconds()})
	if err != nil {
		return err
	}
	token, ok := resp.Result.(string)
	if !ok || token == "" {
		return errors.Errorf(`lock response for document "%s" is missing the token`, d.identity)
	}

	d.mu.Lock()
	d.token = token
	d.mu.Unlock()

	fnErr := fn(ctx, d)

	d.mu.Lock()
	d.token = ""
	d.mu.Unlock()

	// Release even when the callback failed, the token must not linger
	// until its expiry.
	resp, err = d.client.Call(ctx, &protocol.Request{
		DocumentID: d.identity,
		Query:      protocol.Query{Op: protocol.OpRelease},
		LockToken:  token,
	})
	releaseErr := err
	if releaseErr == nil {
		releaseErr = resp.Err()
	}
	if releaseErr != nil {
		if fnErr == nil {
			return releaseErr
		}
		// The callback's error wins, but a failed release must not vanish.
		d.client.logger.Warnf(ctx, `cannot release lock token for document "%s": %s`, d.identity, releaseErr)
	}

	return fnErr
}

func (d *Document) mutate(ctx context.Context, q protocol.Query) (bool, error) {
	resp, err := d.call(ctx, q)
	if err != nil {
		return false, err
	}
	return resp.OK, nil
}

func (d *Document) take(ctx context.Context, q protocol.Query) (any, bool, error) {
	resp, err := d.call(ctx, q)
	if err != nil {
		return nil, false, err
	}
	if !resp.OK {
		return nil, false, nil
	}
	return resp.Result, true, nil
}

// call forwards one query, attaching the open transaction's token, and
// unwraps an error response to the typed error.
func (d *Document) call(ctx context.Context, q protocol.Query) (*protocol.Response, error) {
	d.mu.Lock()
	token := d.token
	d.mu.Unlock()

	resp, err := d.client.Call(ctx, &protocol.Request{
		DocumentID: d.identity,
		Query:      q,
		LockToken:  token,
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}
