package source

import (
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

type Compression string

const (
	CompressionInfer Compression = ""
	CompressionNone  Compression = "none"
	CompressionGzip  Compression = "gzip"
	CompressionBz2   Compression = "bz2"
	CompressionXz    Compression = "xz"
	CompressionZip   Compression = "zip"
	// CompressionZstd can only be read sequentially
	CompressionZstd Compression = "zstd"
)

var (
	ErrUnsupportedCompression = errors.New("unsupported compression")
	ErrZipEntries             = errors.New("zip archive must contain exactly one file")

	extensions = map[string]Compression{
		".gz":  CompressionGzip,
		".bz2": CompressionBz2,
		".xz":  CompressionXz,
		".zip": CompressionZip,
		".zst": CompressionZstd,
	}
)

// InferCompression resolves CompressionInfer from the file extension
func InferCompression(path string, c Compression) Compression {
	if c != CompressionInfer {
		return c
	}
	if inferred, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return inferred
	}
	return CompressionNone
}

// Partitionable reports whether independent tasks can each reach an arbitrary offset of
// the decompressed stream
func (c Compression) Partitionable() bool {
	switch c {
	case CompressionNone, CompressionGzip, CompressionBz2, CompressionXz, CompressionZip:
		return true
	}
	return false
}

type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openFile opens path and wraps it in the decompressor for c
func openFile(path string, c Compression) (io.ReadCloser, error) {
	if c == CompressionZip {
		zr, err := zip.OpenReader(path)
		if err != nil {
			return nil, fmt.Errorf("error in zip.OpenReader: %w", err)
		}
		if len(zr.File) != 1 {
			zr.Close()
			return nil, fmt.Errorf("%s has %d entries: %w", path, len(zr.File), ErrZipEntries)
		}
		entry, err := zr.File[0].Open()
		if err != nil {
			zr.Close()
			return nil, fmt.Errorf("error opening zip entry: %w", err)
		}
		return &multiCloser{Reader: entry, closers: []io.Closer{entry, zr}}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error in os.Open: %w", err)
	}
	rc, err := Decompress(f, c)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &multiCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil
}

// Decompress wraps an arbitrary stream. Zip input is buffered in memory since the archive
// directory sits at the end of the stream.
func Decompress(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone, CompressionInfer:
		return io.NopCloser(r), nil
	case CompressionGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("error in gzip.NewReader: %w", err)
		}
		return gz, nil
	case CompressionBz2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	case CompressionXz:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("error in xz.NewReader: %w", err)
		}
		return io.NopCloser(xzr), nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("error in zstd.NewReader: %w", err)
		}
		return dec.IOReadCloser(), nil
	case CompressionZip:
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("error reading zip stream: %w", err)
		}
		zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
		if err != nil {
			return nil, fmt.Errorf("error in zip.NewReader: %w", err)
		}
		if len(zr.File) != 1 {
			return nil, fmt.Errorf("stream has %d entries: %w", len(zr.File), ErrZipEntries)
		}
		return zr.File[0].Open()
	}
	return nil, fmt.Errorf("compression %q: %w", c, ErrUnsupportedCompression)
}
