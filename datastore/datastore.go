package datastore

import (
	"context"
	"errors"
	"io"

	"github.com/danthegoodman1/splitread/gologger"
)

var (
	logger = gologger.NewLogger()

	ErrNotFound = errors.New("file not found")
)

type (
	// DataStore holds exported parquet files by key
	DataStore interface {
		// WriteFile stores everything read from r under key, returning the bytes written
		WriteFile(ctx context.Context, key string, r io.Reader) (int64, error)
		// ReadFile opens the file stored under key
		ReadFile(ctx context.Context, key string) (io.ReadCloser, error)

		Shutdown(ctx context.Context) error
	}
)
