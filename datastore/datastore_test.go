package datastore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiskDataStore(t *testing.T) {
	ctx := context.Background()
	dds, err := NewDiskDataStore(t.TempDir())
	require.NoError(t, err)

	n, err := dds.WriteFile(ctx, "exports/a.parquet", strings.NewReader("hello"))
	require.NoError(t, err)
	require.EqualValues(t, 5, n)

	rc, err := dds.ReadFile(ctx, "exports/a.parquet")
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))

	_, err = dds.ReadFile(ctx, "missing.parquet")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = dds.WriteFile(ctx, "../escape", strings.NewReader("x"))
	require.Error(t, err)

	require.NoError(t, dds.Shutdown(ctx))
}

var _ DataStore = (*DiskDataStore)(nil)
var _ DataStore = (*S3DataStore)(nil)
