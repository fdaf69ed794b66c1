// Package store provides the backing stores behind a document: process
// memory, one file, or one key in an etcd cluster.
//
// Every store holds the entire document as compact serialized JSON and
// rewrites it whole on every save. Mutual exclusion is the caller's job,
// except seeding, which each store performs atomically itself.
package store

import (
	"context"
)

type Kind string

const (
	KindMemory      = Kind("memory")
	KindFile        = Kind("file")
	KindCentralized = Kind("centralized")
)

type Store interface {
	Kind() Kind
	// Load returns the full current snapshot.
	Load(ctx context.Context) (any, error)
	// Save persists the entire snapshot, there are no partial updates.
	Save(ctx context.Context, content any) error
	// Seed writes the initial content if no content exists yet.
	// The check-then-write is atomic with respect to concurrent seeders.
	Seed(ctx context.Context, initial any) error
	Close() error
}
