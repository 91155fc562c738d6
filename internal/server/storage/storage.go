// Package storage holds the upload providers: the local public directory
// and S3-compatible object storage.
package storage

import (
	"context"
	"io"
	"path"

	"github.com/dmitrijs2005/storefront/internal/filex"
)

// Provider stores an object under key and returns the URL clients use to fetch it.
type Provider interface {
	Name() string
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// Local writes into <publicDir>/uploads; files are served under /uploads/.
type Local struct {
	dir string
}

const uploadsPrefix = "/uploads"

func NewLocal(publicDir string) (*Local, error) {
	dir, err := filex.EnsureDir(path.Join(publicDir, "uploads"))
	if err != nil {
		return nil, err
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Name() string { return "local" }

// Dir is the absolute directory served as /uploads/.
func (l *Local) Dir() string { return l.dir }

func (l *Local) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if _, err := filex.WriteFile(l.dir, key, body); err != nil {
		return "", err
	}
	return uploadsPrefix + "/" + path.Base(key), nil
}
