package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/danthegoodman1/splitread/options"
	"github.com/danthegoodman1/splitread/parsers"
	"github.com/danthegoodman1/splitread/partitioner"
	"github.com/danthegoodman1/splitread/source"
	"github.com/danthegoodman1/splitread/table"
	"github.com/danthegoodman1/splitread/utils"
	"github.com/rs/zerolog"
)

// openInput opens the raw (still compressed) stream of any input
func (r *Reader) openInput(ctx context.Context, in source.Input) (io.ReadCloser, error) {
	switch {
	case in.Reader != nil:
		return io.NopCloser(in.Reader), nil
	case in.IsRemote():
		if r.remote == nil {
			return nil, fmt.Errorf("%s: %w", in.Path, ErrRemoteUnavailable)
		}
		return r.remote(ctx, in.Path)
	}
	f, err := os.Open(in.Path)
	if err != nil {
		return nil, fmt.Errorf("error in os.Open: %w", err)
	}
	return f, nil
}

// filterLines drops the physical lines a set or predicate skips
func filterLines(data []byte, skip options.SkipRows) []byte {
	out := make([]byte, 0, len(data))
	line := 0
	for len(data) > 0 {
		end := bytes.IndexByte(data, '\n') + 1
		if end == 0 {
			end = len(data)
		}
		if !skip.Skip(line) {
			out = append(out, data[:end]...)
		}
		data = data[end:]
		line++
	}
	return out
}

// readSequential reads the whole input in one pass with the same probe, scan, parse and
// join steps as the partitioned pipeline
func (r *Reader) readSequential(ctx context.Context, in source.Input, parser parsers.Parser, opts *options.ReadOptions) (*Result, error) {
	rc, err := r.openInput(ctx, in)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	decompressed, err := source.Decompress(rc, source.InferCompression(in.Path, opts.Compression))
	if err != nil {
		return nil, fmt.Errorf("error in Decompress: %w", err)
	}
	defer decompressed.Close()
	decoded, err := source.DecodeReader(decompressed, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("error in DecodeReader: %w", err)
	}
	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	if _, ok := options.SkipRowCount(opts.SkipRows); !ok {
		data = filterLines(data, opts.SkipRows)
		opts = opts.Clone()
		opts.SkipRows = nil
	}

	probe, err := parser.ProbeSchema(ctx, bytes.NewReader(data), opts)
	if err != nil {
		return nil, fmt.Errorf("error in ProbeSchema: %w", err)
	}
	scan, err := headerScanner(opts).Scan(partitioner.NewRecordReader(bytes.NewReader(data), parser.Quote(), commentByte(opts)))
	if err != nil {
		return nil, fmt.Errorf("error in HeaderScanner.Scan: %w", err)
	}
	body := data[scan.Bytes:]

	task := &parsers.ChunkTask{
		Probe:        probe,
		Options:      opts,
		ColumnWidths: partitioner.ComputeColumnWidths(len(probe.Columns), 1, r.cfg.MinColumnBlock),
	}
	res, err := parser.Parse(ctx, bytes.NewReader(body), task, utils.Deref(opts.NRows, -1))
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("input", in.String()).Int("rows", res.RowCount).Msg("read sequentially")

	if opts.ChunkSize > 0 {
		return &Result{Iterator: newTableIterator(res, probe, task.ColumnWidths, opts.ChunkSize)}, nil
	}
	t, err := join([]*table.ChunkResult{res}, probe, task.ColumnWidths, opts.SkipFooter, 0)
	if err != nil {
		return nil, err
	}
	return finish(t, opts), nil
}
