package gate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danthegoodman1/splitread/options"
	"github.com/danthegoodman1/splitread/source"
	"github.com/danthegoodman1/splitread/utils"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	zst := filepath.Join(dir, "data.csv.zst")
	if err := os.WriteFile(zst, []byte{}, 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		in     source.Input
		opts   *options.ReadOptions
		route  Route
		reason Reason
	}{
		{"plain", source.FromPath(path), &options.ReadOptions{}, RoutePartitioned, ReasonNone},
		{"skip count", source.FromPath(path), &options.ReadOptions{SkipRows: options.SkipCount(1)}, RoutePartitioned, ReasonNone},
		{"latin1", source.FromPath(path), &options.ReadOptions{Encoding: "latin1"}, RoutePartitioned, ReasonNone},
		{"reader", source.FromReader(strings.NewReader("a\n")), &options.ReadOptions{}, RouteSequential, ReasonReader},
		{"remote", source.FromPath("s3://bucket/key.csv"), &options.ReadOptions{}, RouteSequential, ReasonRemote},
		{"missing", source.FromPath(filepath.Join(dir, "nope.csv")), &options.ReadOptions{}, RouteSequential, ReasonNotFile},
		{"directory", source.FromPath(dir), &options.ReadOptions{}, RouteSequential, ReasonNotFile},
		{"zstd", source.FromPath(zst), &options.ReadOptions{}, RouteSequential, ReasonCompression},
		{"chunksize", source.FromPath(path), &options.ReadOptions{ChunkSize: 10}, RouteSequential, ReasonChunkSize},
		{"skip set", source.FromPath(path), &options.ReadOptions{SkipRows: options.SkipSet{1}}, RouteSequential, ReasonSkipRows},
		{"skip func", source.FromPath(path), &options.ReadOptions{SkipRows: options.SkipFunc(func(int) bool { return false })}, RouteSequential, ReasonSkipRows},
		{"nrows", source.FromPath(path), &options.ReadOptions{NRows: utils.Ptr(1)}, RouteSequential, ReasonNRows},
		{"utf16", source.FromPath(path), &options.ReadOptions{Encoding: "utf-16le"}, RouteSequential, ReasonEncoding},
	}
	for _, c := range cases {
		d, err := Decide(context.Background(), c.in, c.opts)
		require.NoError(t, err, c.name)
		require.Equal(t, c.route, d.Route, c.name)
		require.Equal(t, c.reason, d.Reason, c.name)
		if c.route == RoutePartitioned {
			require.Equal(t, int64(8), d.Descriptor.Size, c.name)
		} else {
			require.Nil(t, d.Descriptor, c.name)
		}
	}
}
