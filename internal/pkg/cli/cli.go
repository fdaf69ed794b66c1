// Package cli implements the docwire command: one-shot operations on
// file-backed documents, useful for inspection and scripting.
package cli

import (
	"context"
	"io"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/docwire/docwire/internal/pkg/document"
	"github.com/docwire/docwire/internal/pkg/document/coorderrors"
	"github.com/docwire/docwire/internal/pkg/document/manager"
	"github.com/docwire/docwire/internal/pkg/document/selector"
	"github.com/docwire/docwire/internal/pkg/encoding/json"
	"github.com/docwire/docwire/internal/pkg/log"
	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

type flags struct {
	file     string
	selector string
	key      string
	matchKey string
	verbose  bool
}

// NewRootCommand builds the docwire command tree.
func NewRootCommand(stdout, stderr io.Writer, fs afero.Fs) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "docwire",
		Short:         "Operate on a file-backed coordinated document.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.file, "file", "", "path of the document file")
	root.PersistentFlags().StringVar(&f.selector, "selector", "", "dot-separated path into the document")
	root.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "print details")

	open := func(ctx context.Context, mustExist bool) (document.Document, *manager.AuthorityManager, error) {
		if f.file == "" {
			return nil, nil, errors.New(`flag "--file" is required`)
		}
		// Read-only commands never create the file, a typo in the path must
		// not leave an empty document behind.
		if mustExist {
			if exists, err := afero.Exists(fs, f.file); err != nil {
				return nil, nil, err
			} else if !exists {
				return nil, nil, coorderrors.NewDocumentNotFoundError(f.file)
			}
		}
		logger := log.NewConsoleLogger(stdout, stderr, f.verbose)
		m := manager.NewAuthorityManager(logger, clockwork.NewRealClock(), manager.NewConfig(), fs, nil)
		d, err := m.MakeDocument(ctx, document.Definition{Source: document.SourceFile, Path: f.file})
		if err != nil {
			_ = m.Close(ctx)
			return nil, nil, err
		}
		return d, m, nil
	}

	root.AddCommand(
		getCommand(f, stdout, open),
		setCommand(f, open),
		pushCommand(f, open),
		removeCommand(f, open),
		serveCommand(stderr, fs),
	)
	return root
}

type openFn func(ctx context.Context, mustExist bool) (document.Document, *manager.AuthorityManager, error)

func getCommand(f *flags, stdout io.Writer, open openFn) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the value at the selector as JSON.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d, m, err := open(ctx, true)
			if err != nil {
				return err
			}
			defer func() { _ = m.Close(ctx) }()

			value, err := d.Get(ctx, selector.Parse(f.selector))
			if err != nil {
				return err
			}
			out, err := json.EncodeString(value, true)
			if err != nil {
				return err
			}
			_, err = io.WriteString(stdout, out)
			return err
		},
	}
}

func setCommand(f *flags, open openFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <json-value>",
		Short: "Set a key of the record at the selector.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			value, err := decodeArg(args[0])
			if err != nil {
				return err
			}

			d, m, err := open(ctx, false)
			if err != nil {
				return err
			}
			defer func() { _ = m.Close(ctx) }()

			ok, err := d.Set(ctx, selector.Parse(f.selector), f.key, value)
			if err != nil {
				return err
			}
			if !ok {
				return errors.Errorf(`there is no record at "%s"`, f.selector)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.key, "key", "", "key to set in the record")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func pushCommand(f *flags, open openFn) *cobra.Command {
	return &cobra.Command{
		Use:   "push <json-value>",
		Short: "Append a value to the sequence at the selector.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			value, err := decodeArg(args[0])
			if err != nil {
				return err
			}

			d, m, err := open(ctx, false)
			if err != nil {
				return err
			}
			defer func() { _ = m.Close(ctx) }()

			ok, err := d.Push(ctx, selector.Parse(f.selector), value)
			if err != nil {
				return err
			}
			if !ok {
				return errors.Errorf(`there is no sequence at "%s"`, f.selector)
			}
			return nil
		},
	}
}

func removeCommand(f *flags, open openFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <json-item>",
		Short: "Remove the matching item from the sequence at the selector.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			item, err := decodeArg(args[0])
			if err != nil {
				return err
			}

			d, m, err := open(ctx, false)
			if err != nil {
				return err
			}
			defer func() { _ = m.Close(ctx) }()

			ok, err := d.RemoveItemFromArray(ctx, selector.Parse(f.selector), item, f.matchKey)
			if err != nil {
				return err
			}
			if !ok {
				return errors.Errorf(`no matching item at "%s"`, f.selector)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.matchKey, "match-key", "", "match items by this key instead of whole-value equality")
	return cmd
}

// decodeArg reads the operand as JSON, falling back to a plain string, so
// both `push 42` and `push sometext` work.
func decodeArg(arg string) (any, error) {
	var value any
	if err := json.DecodeString(arg, &value); err != nil {
		return arg, nil //nolint:nilerr // not JSON, treat as a literal string
	}
	return value, nil
}
