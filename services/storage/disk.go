// Package storagesvc implements blob storage backends.
package storagesvc

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/unigate/unigate/core"
)

type diskStorage struct {
	root string
}

var _ core.FileStorage = (*diskStorage)(nil)

// NewDiskStorage stores blobs under conf.Storage.Root. Paths are
// slash-separated keys, never raw filesystem paths.
func NewDiskStorage(conf *core.Config) (*diskStorage, error) {
	root, err := filepath.Abs(conf.Storage.Root)
	if err != nil {
		return nil, errors.Wrap(err, "resolving storage root")
	}
	if err = os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage root")
	}
	return &diskStorage{root: root}, nil
}

// resolve maps a storage key onto the root, rejecting traversal outside it.
func (s *diskStorage) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", errors.Errorf("invalid storage path %q", path)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *diskStorage) Save(ctx context.Context, path string, r io.Reader) (int64, error) {
	full, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	if err = os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, errors.Wrap(err, "creating storage directory")
	}

	f, err := os.Create(full)
	if err != nil {
		return 0, errors.Wrap(err, "creating file")
	}
	defer func() { _ = f.Close() }()

	size, err := io.Copy(f, r)
	if err != nil {
		_ = os.Remove(full)
		return 0, errors.Wrap(err, "writing file")
	}
	return size, nil
}

func (s *diskStorage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NotFoundError("file not found", err)
		}
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

func (s *diskStorage) Delete(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err = os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting file")
	}
	return nil
}

func (s *diskStorage) Stat(ctx context.Context, path string) (core.FileInfo, error) {
	full, err := s.resolve(path)
	if err != nil {
		return core.FileInfo{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return core.FileInfo{}, core.NotFoundError("file not found", err)
		}
		return core.FileInfo{}, errors.Wrap(err, "stat file")
	}
	return core.FileInfo{
		Path:        path,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(full)),
	}, nil
}
