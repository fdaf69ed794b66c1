// Package distlock provides the distributed mutual-exclusion primitive for
// documents backed by a centralized store.
//
// Locks live in etcd under a session lease: if the holder process disappears,
// the lease expires and the lock is released, so a crashed host cannot block
// the others forever.
package distlock

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	etcd "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/docwire/docwire/internal/pkg/log"
	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

type Config struct {
	// SessionTTLSeconds is the etcd lease TTL, an abandoned lock is released
	// at most this many seconds after its holder disappears.
	SessionTTLSeconds int `configKey:"sessionTtlSeconds"`
	// KeyPrefix prefixes all lock keys.
	KeyPrefix string `configKey:"keyPrefix"`
}

func NewConfig() Config {
	return Config{
		SessionTTLSeconds: 15,
		KeyPrefix:         "docwire/lock",
	}
}

// Provider creates distributed mutexes sharing one etcd session.
type Provider struct {
	config  Config
	logger  log.Logger
	client  *etcd.Client
	lock    sync.Mutex
	session *concurrency.Session
}

func NewProvider(ctx context.Context, config Config, logger log.Logger, client *etcd.Client) (*Provider, error) {
	p := &Provider{
		config: config,
		logger: logger.WithComponent("distlock"),
		client: client,
	}

	// Create the session with retries, a short outage on startup is common.
	b := newSessionBackoff()
	startTime := time.Now()
	p.logger.Info(ctx, "creating etcd session")
	if err := backoff.Retry(func() error {
		session, err := concurrency.NewSession(client, concurrency.WithTTL(config.SessionTTLSeconds), concurrency.WithContext(ctx))
		if err != nil {
			return err
		}
		p.session = session
		return nil
	}, backoff.WithContext(b, ctx)); err != nil {
		return nil, errors.Wrap(err, "cannot create etcd session")
	}
	p.logger.Infof(ctx, "created etcd session | %s", time.Since(startTime))

	return p, nil
}

// NewMutex returns a distributed mutex for the name,
// usually a document identity.
func (p *Provider) NewMutex(name string) *Mutex {
	return &Mutex{
		name:  name,
		inner: concurrency.NewMutex(p.session, p.config.KeyPrefix+"/"+name),
	}
}

func (p *Provider) Close(ctx context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.session == nil {
		return nil
	}
	p.logger.Info(ctx, "closing etcd session")
	err := p.session.Close()
	p.session = nil
	return err
}

func newSessionBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.RandomizationFactor = 0.2
	b.InitialInterval = 50 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	b.Reset()
	return b
}
