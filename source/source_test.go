package source

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

const sample = "a,b\n1,2\n3,4\n"

// bzip2 of sample, the standard library has no bzip2 writer
var sampleBz2 = []byte{
	0x42, 0x5a, 0x68, 0x39, 0x31, 0x41, 0x59, 0x26, 0x53, 0x59, 0x03, 0x0c, 0x1f, 0x1b, 0x00, 0x00,
	0x05, 0x59, 0x00, 0x00, 0x10, 0x00, 0x04, 0x3c, 0x00, 0x30, 0x00, 0x20, 0x00, 0x22, 0x1e, 0xa1,
	0x88, 0x43, 0x02, 0x27, 0x34, 0xe3, 0x80, 0x1e, 0x2e, 0xe4, 0x8a, 0x70, 0xa1, 0x20, 0x06, 0x18,
	0x3e, 0x36,
}

func writeCompressed(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	var buf bytes.Buffer
	switch filepath.Ext(name) {
	case ".gz":
		w := gzip.NewWriter(&buf)
		_, err := w.Write([]byte(sample))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case ".xz":
		w, err := xz.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write([]byte(sample))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case ".zip":
		zw := zip.NewWriter(&buf)
		w, err := zw.Create("data.csv")
		require.NoError(t, err)
		_, err = w.Write([]byte(sample))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
	case ".zst":
		w, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write([]byte(sample))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case ".bz2":
		buf.Write(sampleBz2)
	default:
		buf.WriteString(sample)
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestInferCompression(t *testing.T) {
	require.Equal(t, CompressionGzip, InferCompression("x.csv.gz", CompressionInfer))
	require.Equal(t, CompressionNone, InferCompression("x.csv", CompressionInfer))
	require.Equal(t, CompressionXz, InferCompression("x.csv", CompressionXz))
	require.True(t, CompressionZip.Partitionable())
	require.False(t, CompressionZstd.Partitionable())
}

func TestDescribeAndOpenRange(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"plain.csv", "d.csv.gz", "d.csv.bz2", "d.csv.xz", "d.csv.zip", "d.csv.zst"} {
		t.Run(name, func(t *testing.T) {
			path := writeCompressed(t, dir, name)
			fd, err := Describe(path, CompressionInfer)
			require.NoError(t, err)
			require.Equal(t, int64(len(sample)), fd.Size)

			rc, err := fd.OpenRange(4, 8)
			require.NoError(t, err)
			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			require.Equal(t, "1,2\n", string(b))

			line, err := fd.ReadFirstLine()
			require.NoError(t, err)
			require.Equal(t, "a,b\n", string(line))
		})
	}
}

func TestDecompressReader(t *testing.T) {
	rc, err := Decompress(bytes.NewReader(sampleBz2), CompressionBz2)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, sample, string(b))

	_, err = Decompress(bytes.NewReader(nil), Compression("lz4"))
	require.ErrorIs(t, err, ErrUnsupportedCompression)
}

func TestInputKinds(t *testing.T) {
	dir := t.TempDir()
	path := writeCompressed(t, dir, "plain.csv")
	require.True(t, FromPath(path).IsLocalFile())
	require.False(t, FromPath(dir).IsLocalFile())
	require.False(t, FromPath(filepath.Join(dir, "missing.csv")).IsLocalFile())
	require.True(t, FromPath("s3://bucket/key.csv").IsRemote())
	require.False(t, FromReader(bytes.NewReader(nil)).IsLocalFile())
}

func TestEncoding(t *testing.T) {
	require.True(t, NewlineIsSingleByte(""))
	require.True(t, NewlineIsSingleByte("latin1"))
	require.False(t, NewlineIsSingleByte("utf-16le"))

	out, err := DecodeBytes([]byte{'c', 'a', 'f', 0xe9}, "latin1")
	require.NoError(t, err)
	require.Equal(t, "café", string(out))
}
