package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type (
	// Input is either a path (local or s3:// URI) or an already open stream
	Input struct {
		Path   string
		Reader io.Reader
	}

	// FileDescriptor describes a local file that can be split into byte ranges. Size is the
	// decompressed length.
	FileDescriptor struct {
		Path        string
		Compression Compression
		Size        int64
	}
)

var ErrNotRegularFile = errors.New("not a regular file")

func FromPath(path string) Input {
	return Input{Path: path}
}

func FromReader(r io.Reader) Input {
	return Input{Reader: r}
}

// IsRemote reports object storage URIs
func (in Input) IsRemote() bool {
	return strings.HasPrefix(in.Path, "s3://")
}

func (in Input) String() string {
	if in.Reader != nil {
		return "<reader>"
	}
	return in.Path
}

// IsLocalFile reports whether the input names an existing regular file
func (in Input) IsLocalFile() bool {
	if in.Reader != nil || in.Path == "" || in.IsRemote() {
		return false
	}
	st, err := os.Stat(in.Path)
	return err == nil && st.Mode().IsRegular()
}

// Describe stats the file and measures its decompressed size. Compressed files are
// streamed once to count bytes.
func Describe(path string, c Compression) (*FileDescriptor, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error in os.Stat: %w", err)
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}
	fd := &FileDescriptor{
		Path:        path,
		Compression: InferCompression(path, c),
	}
	if fd.Compression == CompressionNone {
		fd.Size = st.Size()
		return fd, nil
	}
	rc, err := fd.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	fd.Size, err = io.Copy(io.Discard, rc)
	if err != nil {
		return nil, fmt.Errorf("error measuring decompressed size: %w", err)
	}
	return fd, nil
}

// Open returns the full decompressed stream
func (fd *FileDescriptor) Open() (io.ReadCloser, error) {
	return openFile(fd.Path, fd.Compression)
}

// OpenRange returns the decompressed bytes [start, end). Each call opens its own handle.
func (fd *FileDescriptor) OpenRange(start, end int64) (io.ReadCloser, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid byte range [%d, %d)", start, end)
	}
	if fd.Compression == CompressionNone {
		f, err := os.Open(fd.Path)
		if err != nil {
			return nil, fmt.Errorf("error in os.Open: %w", err)
		}
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("error in f.Seek: %w", err)
		}
		return &multiCloser{Reader: io.LimitReader(f, end-start), closers: []io.Closer{f}}, nil
	}

	rc, err := fd.Open()
	if err != nil {
		return nil, err
	}
	// decompressed streams are not seekable, so discard up to the start offset
	if _, err := io.CopyN(io.Discard, rc, start); err != nil {
		rc.Close()
		return nil, fmt.Errorf("error skipping to offset %d: %w", start, err)
	}
	return &multiCloser{Reader: io.LimitReader(rc, end-start), closers: []io.Closer{rc}}, nil
}

// ReadFirstLine returns the first line of the decompressed stream including its terminator
func (fd *FileDescriptor) ReadFirstLine() ([]byte, error) {
	rc, err := fd.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	line, err := bufio.NewReader(rc).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error reading first line: %w", err)
	}
	return line, nil
}
