package core

import (
	"context"
	"io"
)

// FileInfo describes a stored blob.
type FileInfo struct {
	Path        string
	Size        int64
	ContentType string
}

// FileStorage is any service that can store blobs under slash-separated paths.
type FileStorage interface {
	Save(ctx context.Context, path string, r io.Reader) (int64, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	Stat(ctx context.Context, path string) (FileInfo, error)
}
