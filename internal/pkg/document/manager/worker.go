package manager

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/docwire/docwire/internal/pkg/document"
	"github.com/docwire/docwire/internal/pkg/document/proxy"
	"github.com/docwire/docwire/internal/pkg/document/transport"
	"github.com/docwire/docwire/internal/pkg/log"
)

// WorkerManager hands out proxy documents bound to the upstream channel.
// The real data lives in the authority process on the other end.
type WorkerManager struct {
	logger log.Logger
	client *proxy.Client

	mu        sync.Mutex
	documents map[string]*proxy.Document
}

var _ Manager = (*WorkerManager)(nil)

func NewWorkerManager(logger log.Logger, clock clockwork.Clock, config Config, upstream transport.Channel) *WorkerManager {
	return &WorkerManager{
		logger:    logger.WithComponent("manager"),
		client:    proxy.NewClient(logger, clock, config.Proxy, upstream),
		documents: make(map[string]*proxy.Document),
	}
}

// MakeDocument returns the proxy of the document with the definition's
// identity. The authority process is expected to host it, a mismatch
// surfaces as a not-found error on the first operation.
func (m *WorkerManager) MakeDocument(_ context.Context, def document.Definition) (document.Document, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	identity, err := def.Identity()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if d, found := m.documents[identity]; found {
		return d, nil
	}
	d := proxy.NewDocument(m.client, identity)
	m.documents[identity] = d
	return d, nil
}

func (m *WorkerManager) Close(_ context.Context) error {
	return m.client.Close()
}
