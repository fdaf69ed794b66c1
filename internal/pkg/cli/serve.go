package cli

import (
	"io"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/docwire/docwire/internal/pkg/document"
	"github.com/docwire/docwire/internal/pkg/document/manager"
	"github.com/docwire/docwire/internal/pkg/document/transport"
	"github.com/docwire/docwire/internal/pkg/log"
)

// serveCommand hosts file-backed documents and answers requests arriving as
// JSON lines on stdin, one response line per request on stdout. The parent
// process owns the lifecycle: the command ends when stdin closes.
func serveCommand(stderr io.Writer, fs afero.Fs) *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host file-backed documents over stdio.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			// Stdout carries the protocol, logs may only go to stderr.
			logger := log.NewConsoleLogger(io.Discard, stderr, false)
			m := manager.NewAuthorityManager(logger, clockwork.NewRealClock(), manager.NewConfig(), fs, nil)
			defer func() { _ = m.Close(ctx) }()

			for _, path := range files {
				if _, err := m.MakeDocument(ctx, document.Definition{Source: document.SourceFile, Path: path}); err != nil {
					return err
				}
			}

			channel := transport.NewStdio(logger)
			m.AttachWorker(ctx, channel)

			select {
			case <-channel.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
	cmd.Flags().StringSliceVar(&files, "file", nil, "document file to host, repeatable")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
