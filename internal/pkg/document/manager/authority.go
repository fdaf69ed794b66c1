package manager

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	etcd "go.etcd.io/etcd/client/v3"

	"github.com/docwire/docwire/internal/pkg/distlock"
	"github.com/docwire/docwire/internal/pkg/document"
	"github.com/docwire/docwire/internal/pkg/document/authority"
	"github.com/docwire/docwire/internal/pkg/document/coorderrors"
	"github.com/docwire/docwire/internal/pkg/document/protocol"
	"github.com/docwire/docwire/internal/pkg/document/store"
	"github.com/docwire/docwire/internal/pkg/document/transport"
	"github.com/docwire/docwire/internal/pkg/lock"
	"github.com/docwire/docwire/internal/pkg/log"
	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

// AuthorityManager hosts documents in this process. Worker channels attached
// via AttachWorker are served until they close.
type AuthorityManager struct {
	logger     log.Logger
	clock      clockwork.Clock
	config     Config
	fs         afero.Fs
	etcdClient *etcd.Client

	locks *lock.Registry
	wg    sync.WaitGroup

	mu           sync.Mutex
	closed       bool
	distProvider *distlock.Provider
	documents    map[string]*hostedDocument
}

var _ Manager = (*AuthorityManager)(nil)

type hostedDocument struct {
	authority *authority.Authority
	store     store.Store
}

func NewAuthorityManager(logger log.Logger, clock clockwork.Clock, config Config, fs afero.Fs, etcdClient *etcd.Client) *AuthorityManager {
	return &AuthorityManager{
		logger:     logger.WithComponent("manager"),
		clock:      clock,
		config:     config,
		fs:         fs,
		etcdClient: etcdClient,
		locks:      lock.NewRegistry(),
		documents:  make(map[string]*hostedDocument),
	}
}

// MakeDocument creates the document's backing store, seeds the initial
// content and starts hosting it. Repeated calls with the same identity
// return the already hosted document.
func (m *AuthorityManager) MakeDocument(ctx context.Context, def document.Definition) (document.Document, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	identity, err := def.Identity()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errors.New("the manager is closed")
	}
	if hosted, found := m.documents[identity]; found {
		return hosted.authority, nil
	}

	s, dist, err := m.newStore(ctx, def, identity)
	if err != nil {
		return nil, err
	}

	initial := def.InitialContent
	if initial == nil {
		initial = map[string]any{}
	}
	if err := s.Seed(ctx, initial); err != nil {
		_ = s.Close()
		return nil, err
	}

	a := authority.New(m.logger, m.clock, m.config.Authority, identity, s, m.locks, dist)
	m.documents[identity] = &hostedDocument{authority: a, store: s}
	return a, nil
}

func (m *AuthorityManager) newStore(ctx context.Context, def document.Definition, identity string) (store.Store, *distlock.Mutex, error) {
	switch def.Source {
	case document.SourceMemory:
		return store.NewMemory(), nil, nil
	case document.SourceFile:
		return store.NewFile(m.fs, def.Path), nil, nil
	case document.SourceCentralized:
		if m.etcdClient == nil {
			return nil, nil, coorderrors.NewConfigurationError(`document "%s" requires the centralized store, but no etcd client is configured`, identity)
		}
		provider, err := m.provider(ctx)
		if err != nil {
			return nil, nil, err
		}
		return store.NewEtcd(m.etcdClient, identity), provider.NewMutex(identity), nil
	default:
		return nil, nil, coorderrors.NewConfigurationError(`unexpected document source "%s"`, def.Source)
	}
}

// provider lazily creates the distributed locks session, only documents in
// the centralized store need it. Callers hold m.mu.
func (m *AuthorityManager) provider(ctx context.Context) (*distlock.Provider, error) {
	if m.distProvider != nil {
		return m.distProvider, nil
	}
	provider, err := distlock.NewProvider(ctx, m.config.Distlock, m.logger, m.etcdClient)
	if err != nil {
		return nil, err
	}
	m.distProvider = provider
	return provider, nil
}

// AttachWorker serves requests arriving on the channel until it closes.
// Requests are handled concurrently, correlation ids keep the answers
// matchable, and a worker blocked in a transaction window must not stall
// the other workers.
func (m *AuthorityManager) AttachWorker(ctx context.Context, channel transport.Channel) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case envelope, ok := <-channel.Receive():
				if !ok {
					return
				}
				if envelope.Request == nil {
					continue
				}
				m.wg.Add(1)
				go func() {
					defer m.wg.Done()
					resp := m.handleRequest(ctx, envelope.Request)
					if err := channel.Send(ctx, &transport.Envelope{Response: resp}); err != nil {
						m.logger.Warnf(ctx, `cannot send response "%s": %s`, resp.CorrelationID, err)
					}
				}()
			case <-channel.Done():
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *AuthorityManager) handleRequest(ctx context.Context, req *protocol.Request) *protocol.Response {
	m.mu.Lock()
	hosted, found := m.documents[req.DocumentID]
	m.mu.Unlock()
	if !found {
		return protocol.NewErrorResponse(req.CorrelationID, coorderrors.NewDocumentNotFoundError(req.DocumentID))
	}
	return hosted.authority.HandleRequest(ctx, req)
}

// Close waits for in-flight requests and releases the backing stores and
// the distributed locks session.
func (m *AuthorityManager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	documents := m.documents
	provider := m.distProvider
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-m.clock.After(m.config.ShutdownTimeout):
		m.logger.Warnf(ctx, "shutdown timeout reached, some requests may be unanswered")
	case <-ctx.Done():
	}

	errs := errors.NewMultiError()
	for _, hosted := range documents {
		if err := hosted.store.Close(); err != nil {
			errs.Append(err)
		}
	}
	if provider != nil {
		if err := provider.Close(ctx); err != nil {
			errs.Append(err)
		}
	}
	return errs.ErrorOrNil()
}
