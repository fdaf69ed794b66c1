package store

import (
	"context"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"

	"github.com/docwire/docwire/internal/pkg/encoding/json"
	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

// fileStore keeps the document in one file, rewritten whole on every save.
//
// On the OS filesystem a sibling ".lock" flock guards seeding and the
// write window against other processes sharing the file. On in-memory
// filesystems the flock is skipped, there is no other process to guard
// against.
type fileStore struct {
	fs       afero.Fs
	path     string
	fileLock *flock.Flock // nil on non-OS filesystems
}

func NewFile(fs afero.Fs, path string) Store {
	s := &fileStore{fs: fs, path: path}
	if _, osFs := fs.(*afero.OsFs); osFs {
		s.fileLock = flock.New(path + ".lock")
	}
	return s
}

func (s *fileStore) Kind() Kind {
	return KindFile
}

func (s *fileStore) Load(_ context.Context) (any, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, errors.Wrapf(err, `cannot read document file "%s"`, s.path)
	}
	var out any
	if err := json.Decode(data, &out); err != nil {
		return nil, errors.Wrapf(err, `document file "%s" is invalid`, s.path)
	}
	return out, nil
}

func (s *fileStore) Save(ctx context.Context, content any) error {
	unlock, err := s.flockLock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return s.write(content)
}

func (s *fileStore) Seed(ctx context.Context, initial any) error {
	unlock, err := s.flockLock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if exists, err := afero.Exists(s.fs, s.path); err != nil {
		return err
	} else if exists {
		return nil
	}
	return s.write(initial)
}

func (s *fileStore) Close() error {
	return nil
}

// write replaces the file content atomically, temp file and rename.
func (s *fileStore) write(content any) error {
	data, err := json.Encode(content, false)
	if err != nil {
		return err
	}

	tmpPath := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmpPath, data, 0o644); err != nil {
		return errors.Wrapf(err, `cannot write document file "%s"`, s.path)
	}
	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return errors.Wrapf(err, `cannot replace document file "%s"`, s.path)
	}
	return nil
}

func (s *fileStore) flockLock(ctx context.Context) (func(), error) {
	if s.fileLock == nil {
		return func() {}, nil
	}
	if _, err := s.fileLock.TryLockContext(ctx, 25*time.Millisecond); err != nil {
		return nil, errors.Wrapf(err, `cannot lock document file "%s"`, s.path)
	}
	return func() {
		_ = s.fileLock.Unlock()
	}, nil
}
