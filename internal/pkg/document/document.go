// Package document defines the shared JSON document contract.
//
// One logical document is owned by a single authority process. Dependent
// worker processes operate on it through the same interface, their calls are
// forwarded to the authority as correlated request/response messages.
package document

import (
	"context"
	"time"

	"github.com/docwire/docwire/internal/pkg/document/protocol"
	"github.com/docwire/docwire/internal/pkg/document/selector"
)

// Document is the per-document operation contract,
// identical on the authority and on worker proxies.
//
// Mutations report a soft false result when the selector target has the wrong
// shape, the error return is reserved for store, lock and transport failures.
type Document interface {
	// Identity returns the stable string key of the document.
	Identity() string
	// Get reads the value at the selector without any mutual exclusion.
	// It is best-effort, no snapshot isolation is provided.
	Get(ctx context.Context, sel selector.Selector) (any, error)
	// Set writes key into the record at the selector.
	Set(ctx context.Context, sel selector.Selector, key string, value any) (bool, error)
	// Push appends the value to the sequence at the selector.
	Push(ctx context.Context, sel selector.Selector, value any) (bool, error)
	// Unshift prepends the value to the sequence at the selector.
	Unshift(ctx context.Context, sel selector.Selector, value any) (bool, error)
	// Pop removes and returns the last element of the sequence at the selector.
	Pop(ctx context.Context, sel selector.Selector) (any, bool, error)
	// Shift removes and returns the first element of the sequence at the selector.
	Shift(ctx context.Context, sel selector.Selector) (any, bool, error)
	// Splice removes count elements starting at start and returns them.
	Splice(ctx context.Context, sel selector.Selector, start, count int) ([]any, bool, error)
	// RemoveItemFromArray removes the first matching element.
	// With an empty matchKey elements are compared by deep equality,
	// otherwise the first element whose matchKey field equals item's is removed.
	RemoveItemFromArray(ctx context.Context, sel selector.Selector, item any, matchKey string) (bool, error)
	// UpdateItemInArray locates an element the same way as RemoveItemFromArray
	// and merges updatedItem onto it, or replaces it wholesale when the located
	// element is not a record.
	UpdateItemInArray(ctx context.Context, sel selector.Selector, item, updatedItem any, matchKey string) (bool, error)
	// Batch applies an ordered list of set/push/unshift sub-operations
	// against one loaded snapshot and persists once.
	Batch(ctx context.Context, queries []protocol.Query) error
	// ReplaceAll overwrites the document wholesale.
	ReplaceAll(ctx context.Context, content any) error
	// Transaction runs fn under exclusive ownership of the document.
	// The handle passed to fn implements the same contract. A zero ttl means
	// the configured default, the ttl bounds how long an abandoned lock can
	// block other callers.
	Transaction(ctx context.Context, ttl time.Duration, fn TransactionFunc) error
}

// TransactionFunc is a transaction body, nested calls go through the handle.
type TransactionFunc func(ctx context.Context, doc Document) error
