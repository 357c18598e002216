package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

type (
	DiskDataStore struct {
		rootPath string
	}
)

func NewDiskDataStore(rootPath string) (*DiskDataStore, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("error in os.MkdirAll: %w", err)
	}
	dds := &DiskDataStore{
		rootPath: rootPath,
	}

	return dds, nil
}

func (dds *DiskDataStore) path(key string) (string, error) {
	p := filepath.Join(dds.rootPath, filepath.FromSlash(key))
	if !strings.HasPrefix(p, filepath.Clean(dds.rootPath)+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes the datastore root", key)
	}
	return p, nil
}

func (dds *DiskDataStore) ReadFile(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := dds.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("error in os.Open: %w", err)
	}
	return f, nil
}

func (dds *DiskDataStore) WriteFile(ctx context.Context, key string, r io.Reader) (int64, error) {
	p, err := dds.path(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return 0, fmt.Errorf("error in os.MkdirAll: %w", err)
	}
	f, err := os.Create(p)
	if err != nil {
		return 0, fmt.Errorf("error in os.Create: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return n, fmt.Errorf("error in io.Copy: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("path", p).Int64("bytes", n).Msg("wrote file to disk")
	return n, f.Close()
}

func (dds *DiskDataStore) Shutdown(_ context.Context) error {
	return nil
}
