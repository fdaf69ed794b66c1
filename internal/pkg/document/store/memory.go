package store

import (
	"context"
	"sync"

	"github.com/docwire/docwire/internal/pkg/encoding/json"
)

// memoryStore keeps the document serialized in process memory.
// Serialization gives it the same value shapes and the same copy semantics
// as the persistent stores, callers never alias the stored snapshot.
type memoryStore struct {
	lock sync.RWMutex
	data []byte
}

func NewMemory() Store {
	return &memoryStore{}
}

func (s *memoryStore) Kind() Kind {
	return KindMemory
}

func (s *memoryStore) Load(_ context.Context) (any, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.data == nil {
		return nil, nil
	}
	var out any
	if err := json.Decode(s.data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *memoryStore) Save(_ context.Context, content any) error {
	data, err := json.Encode(content, false)
	if err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.data = data
	return nil
}

func (s *memoryStore) Seed(ctx context.Context, initial any) error {
	data, err := json.Encode(initial, false)
	if err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.data == nil {
		s.data = data
	}
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}
