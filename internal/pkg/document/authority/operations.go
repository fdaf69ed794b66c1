package authority

import (
	"context"

	"github.com/docwire/docwire/internal/pkg/document"
	"github.com/docwire/docwire/internal/pkg/document/coorderrors"
	"github.com/docwire/docwire/internal/pkg/document/protocol"
	"github.com/docwire/docwire/internal/pkg/document/selector"
	"github.com/docwire/docwire/internal/pkg/document/values"
)

var _ document.Document = (*Authority)(nil)

// Get reads without any mutual exclusion, it is best-effort by design.
func (a *Authority) Get(ctx context.Context, sel selector.Selector) (any, error) {
	return a.applyGet(ctx, sel)
}

func (a *Authority) Set(ctx context.Context, sel selector.Selector, key string, value any) (bool, error) {
	ok := false
	err := a.withExclusion(ctx, func(ctx context.Context) (err error) {
		ok, err = a.applySet(ctx, sel, key, value)
		return err
	})
	return ok, err
}

func (a *Authority) Push(ctx context.Context, sel selector.Selector, value any) (bool, error) {
	ok := false
	err := a.withExclusion(ctx, func(ctx context.Context) (err error) {
		ok, err = a.applyInsert(ctx, sel, value, false)
		return err
	})
	return ok, err
}

func (a *Authority) Unshift(ctx context.Context, sel selector.Selector, value any) (bool, error) {
	ok := false
	err := a.withExclusion(ctx, func(ctx context.Context) (err error) {
		ok, err = a.applyInsert(ctx, sel, value, true)
		return err
	})
	return ok, err
}

func (a *Authority) Pop(ctx context.Context, sel selector.Selector) (any, bool, error) {
	var value any
	ok := false
	err := a.withExclusion(ctx, func(ctx context.Context) (err error) {
		value, ok, err = a.applyTake(ctx, sel, true)
		return err
	})
	return value, ok, err
}

func (a *Authority) Shift(ctx context.Context, sel selector.Selector) (any, bool, error) {
	var value any
	ok := false
	err := a.withExclusion(ctx, func(ctx context.Context) (err error) {
		value, ok, err = a.applyTake(ctx, sel, false)
		return err
	})
	return value, ok, err
}

func (a *Authority) Splice(ctx context.Context, sel selector.Selector, start, count int) ([]any, bool, error) {
	var removed []any
	ok := false
	err := a.withExclusion(ctx, func(ctx context.Context) (err error) {
		removed, ok, err = a.applySplice(ctx, sel, start, count)
		return err
	})
	return removed, ok, err
}

func (a *Authority) RemoveItemFromArray(ctx context.Context, sel selector.Selector, item any, matchKey string) (bool, error) {
	ok := false
	err := a.withExclusion(ctx, func(ctx context.Context) (err error) {
		ok, err = a.applyRemoveItem(ctx, sel, item, matchKey)
		return err
	})
	return ok, err
}

func (a *Authority) UpdateItemInArray(ctx context.Context, sel selector.Selector, item, updatedItem any, matchKey string) (bool, error) {
	ok := false
	err := a.withExclusion(ctx, func(ctx context.Context) (err error) {
		ok, err = a.applyUpdateItem(ctx, sel, item, updatedItem, matchKey)
		return err
	})
	return ok, err
}

func (a *Authority) Batch(ctx context.Context, queries []protocol.Query) error {
	return a.withExclusion(ctx, func(ctx context.Context) error {
		return a.applyBatch(ctx, queries)
	})
}

func (a *Authority) ReplaceAll(ctx context.Context, content any) error {
	return a.withExclusion(ctx, func(ctx context.Context) error {
		return a.applyReplaceAll(ctx, content)
	})
}

// Operation bodies. They expect the caller to hold the document's exclusion,
// except applyGet, which deliberately reads without it.

func (a *Authority) applyGet(ctx context.Context, sel selector.Selector) (any, error) {
	root, err := a.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	value, found := selector.Resolve(root, sel)
	if !found {
		return nil, nil
	}
	return value, nil
}

func (a *Authority) applySet(ctx context.Context, sel selector.Selector, key string, value any) (bool, error) {
	value, err := normalizeOperand(value)
	if err != nil {
		return false, err
	}

	root, err := a.store.Load(ctx)
	if err != nil {
		return false, err
	}
	target, found := selector.Resolve(root, sel)
	if !found {
		return false, nil
	}
	record, isRecord := values.Record(target)
	if !isRecord {
		return false, nil
	}
	record[key] = value
	return true, a.store.Save(ctx, root)
}

func (a *Authority) applyInsert(ctx context.Context, sel selector.Selector, value any, prepend bool) (bool, error) {
	value, err := normalizeOperand(value)
	if err != nil {
		return false, err
	}

	root, err := a.store.Load(ctx)
	if err != nil {
		return false, err
	}
	target, found := selector.Resolve(root, sel)
	if !found {
		return false, nil
	}
	sequence, isSequence := values.Sequence(target)
	if !isSequence {
		return false, nil
	}

	if prepend {
		sequence = append([]any{value}, sequence...)
	} else {
		sequence = append(sequence, value)
	}
	root, reachable := selector.Put(root, sel, sequence)
	if !reachable {
		return false, nil
	}
	return true, a.store.Save(ctx, root)
}

func (a *Authority) applyTake(ctx context.Context, sel selector.Selector, fromEnd bool) (any, bool, error) {
	root, err := a.store.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	target, found := selector.Resolve(root, sel)
	if !found {
		return nil, false, nil
	}
	sequence, isSequence := values.Sequence(target)
	if !isSequence {
		return nil, false, nil
	}
	if len(sequence) == 0 {
		// Still a sequence, there is just nothing to remove.
		return nil, true, nil
	}

	var value any
	if fromEnd {
		value = sequence[len(sequence)-1]
		sequence = sequence[:len(sequence)-1]
	} else {
		value = sequence[0]
		sequence = sequence[1:]
	}
	root, reachable := selector.Put(root, sel, sequence)
	if !reachable {
		return nil, false, nil
	}
	return value, true, a.store.Save(ctx, root)
}

func (a *Authority) applySplice(ctx context.Context, sel selector.Selector, start, count int) ([]any, bool, error) {
	root, err := a.store.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	target, found := selector.Resolve(root, sel)
	if !found {
		return nil, false, nil
	}
	sequence, isSequence := values.Sequence(target)
	if !isSequence {
		return nil, false, nil
	}

	// Clamp the window to the sequence bounds.
	if start < 0 {
		start = 0
	}
	if start > len(sequence) {
		start = len(sequence)
	}
	if count < 0 {
		count = 0
	}
	if start+count > len(sequence) {
		count = len(sequence) - start
	}

	removed := make([]any, count)
	copy(removed, sequence[start:start+count])

	remainder := make([]any, 0, len(sequence)-count)
	remainder = append(remainder, sequence[:start]...)
	remainder = append(remainder, sequence[start+count:]...)

	root, reachable := selector.Put(root, sel, remainder)
	if !reachable {
		return nil, false, nil
	}
	return removed, true, a.store.Save(ctx, root)
}

func (a *Authority) applyRemoveItem(ctx context.Context, sel selector.Selector, item any, matchKey string) (bool, error) {
	item, err := normalizeOperand(item)
	if err != nil {
		return false, err
	}

	root, err := a.store.Load(ctx)
	if err != nil {
		return false, err
	}
	target, found := selector.Resolve(root, sel)
	if !found {
		return false, nil
	}
	sequence, isSequence := values.Sequence(target)
	if !isSequence {
		return false, nil
	}

	index := findItem(sequence, item, matchKey)
	if index < 0 {
		// No match leaves the sequence unchanged.
		return false, nil
	}

	remainder := make([]any, 0, len(sequence)-1)
	remainder = append(remainder, sequence[:index]...)
	remainder = append(remainder, sequence[index+1:]...)

	root, reachable := selector.Put(root, sel, remainder)
	if !reachable {
		return false, nil
	}
	return true, a.store.Save(ctx, root)
}

func (a *Authority) applyUpdateItem(ctx context.Context, sel selector.Selector, item, updatedItem any, matchKey string) (bool, error) {
	item, err := normalizeOperand(item)
	if err != nil {
		return false, err
	}
	updatedItem, err = normalizeOperand(updatedItem)
	if err != nil {
		return false, err
	}

	root, err := a.store.Load(ctx)
	if err != nil {
		return false, err
	}
	target, found := selector.Resolve(root, sel)
	if !found {
		return false, nil
	}
	sequence, isSequence := values.Sequence(target)
	if !isSequence {
		return false, nil
	}

	index := findItem(sequence, item, matchKey)
	if index < 0 {
		return false, nil
	}

	record, isRecord := values.Record(sequence[index])
	updatedRecord, updatedIsRecord := values.Record(updatedItem)
	if isRecord && updatedIsRecord {
		// Merge onto the located record.
		for k, v := range updatedRecord {
			record[k] = v
		}
	} else {
		// Replace wholesale.
		sequence[index] = updatedItem
	}
	return true, a.store.Save(ctx, root)
}

// applyBatch applies set/push/unshift sub-operations against one loaded
// snapshot and persists once. Shape mismatches skip the sub-operation,
// consistently with the standalone operations.
func (a *Authority) applyBatch(ctx context.Context, queries []protocol.Query) error {
	root, err := a.store.Load(ctx)
	if err != nil {
		return err
	}

	for _, q := range queries {
		value, err := normalizeOperand(q.Value)
		if err != nil {
			return err
		}
		sel := selector.Selector(q.Selector)
		target, found := selector.Resolve(root, sel)
		if !found {
			continue
		}

		switch q.Op {
		case protocol.OpSet:
			if record, isRecord := values.Record(target); isRecord {
				record[q.Key] = value
			}
		case protocol.OpPush, protocol.OpUnshift:
			sequence, isSequence := values.Sequence(target)
			if !isSequence {
				continue
			}
			if q.Op == protocol.OpUnshift {
				sequence = append([]any{value}, sequence...)
			} else {
				sequence = append(sequence, value)
			}
			root, _ = selector.Put(root, sel, sequence)
		default:
			return coorderrors.NewConfigurationError(`batch does not support the "%s" operation`, q.Op)
		}
	}

	return a.store.Save(ctx, root)
}

func (a *Authority) applyReplaceAll(ctx context.Context, content any) error {
	content, err := normalizeOperand(content)
	if err != nil {
		return err
	}
	return a.store.Save(ctx, content)
}

// findItem locates the first element equal to the item, or, with a matchKey,
// the first record whose matchKey field equals the item's.
func findItem(sequence []any, item any, matchKey string) int {
	if matchKey == "" {
		for i, element := range sequence {
			if values.Equal(element, item) {
				return i
			}
		}
		return -1
	}

	itemRecord, isRecord := values.Record(item)
	if !isRecord {
		return -1
	}
	want, found := itemRecord[matchKey]
	if !found {
		return -1
	}
	for i, element := range sequence {
		if record, isRecord := values.Record(element); isRecord {
			if value, found := record[matchKey]; found && values.Equal(value, want) {
				return i
			}
		}
	}
	return -1
}

// normalizeOperand round-trips an operand through JSON, so callers passing
// typed Go values observe the same shapes as callers across a process
// boundary.
func normalizeOperand(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}
	return values.Normalize(v)
}
