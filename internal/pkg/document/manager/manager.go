// Package manager assembles coordinated documents. The authority manager
// hosts the real documents and serves requests from attached worker
// channels, the worker manager hands out proxy documents bound to the
// upstream channel.
package manager

import (
	"context"
	"time"

	"github.com/docwire/docwire/internal/pkg/distlock"
	"github.com/docwire/docwire/internal/pkg/document"
	"github.com/docwire/docwire/internal/pkg/document/authority"
	"github.com/docwire/docwire/internal/pkg/document/proxy"
)

type Config struct {
	Authority authority.Config `configKey:"authority"`
	Proxy     proxy.Config     `configKey:"proxy"`
	Distlock  distlock.Config  `configKey:"distlock"`
	// ShutdownTimeout bounds the cleanup on Close.
	ShutdownTimeout time.Duration `configKey:"shutdownTimeout"`
}

func NewConfig() Config {
	return Config{
		Authority:       authority.NewConfig(),
		Proxy:           proxy.NewConfig(),
		Distlock:        distlock.NewConfig(),
		ShutdownTimeout: 10 * time.Second,
	}
}

// Manager creates documents from their definitions. The same definition
// always yields the handle of the same underlying document.
type Manager interface {
	MakeDocument(ctx context.Context, def document.Definition) (document.Document, error)
	Close(ctx context.Context) error
}
