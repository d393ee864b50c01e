package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/unigate/unigate/core"
)

// MemStorage is an in-memory core.FileStorage.
type MemStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ core.FileStorage = (*MemStorage)(nil)

func NewMemStorage() *MemStorage {
	return &MemStorage{blobs: make(map[string][]byte)}
}

func (s *MemStorage) Save(ctx context.Context, path string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.blobs[path] = data
	s.mu.Unlock()
	return int64(len(data)), nil
}

func (s *MemStorage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[path]
	s.mu.RUnlock()
	if !ok {
		return nil, core.NotFoundError("file not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemStorage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	delete(s.blobs, path)
	s.mu.Unlock()
	return nil
}

func (s *MemStorage) Stat(ctx context.Context, path string) (core.FileInfo, error) {
	s.mu.RLock()
	data, ok := s.blobs[path]
	s.mu.RUnlock()
	if !ok {
		return core.FileInfo{}, core.NotFoundError("file not found")
	}
	return core.FileInfo{Path: path, Size: int64(len(data))}, nil
}

// Len reports the number of stored blobs.
func (s *MemStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
