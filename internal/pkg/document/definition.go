package document

import (
	"path/filepath"

	"github.com/docwire/docwire/internal/pkg/document/coorderrors"
)

// Source determines the persistence substrate behind a document.
type Source string

const (
	// SourceMemory keeps the document only in the authority's memory.
	SourceMemory = Source("inMemory")
	// SourceFile keeps the document in one file, rewritten whole on every mutation.
	SourceFile = Source("fileBacked")
	// SourceCentralized keeps the document under one key in an etcd cluster,
	// the manager must have been constructed with an etcd client.
	SourceCentralized = Source("centralizedStore")
)

// Definition describes one document to be created by a manager.
type Definition struct {
	// Name is the logical document name. Optional for file-backed documents,
	// where the cleaned path serves as the identity.
	Name string
	// Source selects the backing store.
	Source Source
	// Path is the backing file path, only for SourceFile.
	Path string
	// InitialContent seeds the store if no content exists yet.
	// Nil defaults to an empty object.
	InitialContent any
}

// Identity derives the stable correlation key used to route messages
// and to key the backing store.
func (d Definition) Identity() (string, error) {
	switch {
	case d.Name != "":
		return d.Name, nil
	case d.Source == SourceFile && d.Path != "":
		return filepath.ToSlash(filepath.Clean(d.Path)), nil
	default:
		return "", coorderrors.NewConfigurationError(`document definition: name is required for the "%s" source`, d.Source)
	}
}

// Validate checks the definition shape before any store is touched.
func (d Definition) Validate() error {
	switch d.Source {
	case SourceMemory, SourceCentralized:
		if d.Name == "" {
			return coorderrors.NewConfigurationError(`document definition: name is required for the "%s" source`, d.Source)
		}
	case SourceFile:
		if d.Path == "" {
			return coorderrors.NewConfigurationError("document definition: path is required for the file-backed source")
		}
	default:
		return coorderrors.NewConfigurationError(`document definition: unexpected source "%s"`, d.Source)
	}
	return nil
}
