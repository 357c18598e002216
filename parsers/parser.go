package parsers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/danthegoodman1/splitread/dtype"
	"github.com/danthegoodman1/splitread/options"
	"github.com/danthegoodman1/splitread/partitioner"
	"github.com/danthegoodman1/splitread/source"
	"github.com/danthegoodman1/splitread/table"
)

type (
	// Parser is one input format. ProbeSchema and Parse both read decoded text.
	Parser interface {
		// Quote is the byte row boundaries must respect, 0 when the format has none
		Quote() byte
		// ProbeSchema derives column names and layout without reading any data rows
		ProbeSchema(ctx context.Context, r io.Reader, opts *options.ReadOptions) (*SchemaProbe, error)
		// Parse reads every row in r as a single chunk, stopping after limit rows when
		// limit >= 0
		Parse(ctx context.Context, r io.Reader, task *ChunkTask, limit int) (*table.ChunkResult, error)
	}

	SchemaProbe struct {
		// FileColumns are all column names in file order
		FileColumns []string
		// Columns are the output data columns, after date grouping
		Columns []string
		// Dtypes is object for every column, no rows have been seen yet
		Dtypes []dtype.Dtype
		// UseCols are the selected file positions in file order, nil selects all
		UseCols []int
		// IndexPosition is the file position of the index column, -1 for none
		IndexPosition int
		IndexName     string
		Layout        []ColumnSource
		Inference     table.Inference
	}

	// ColumnSource describes where an output column comes from. Date groups have more
	// than one position, their texts are joined with a space.
	ColumnSource struct {
		Name      string
		Positions []int
		Date      bool
	}

	ChunkTask struct {
		Index        int
		Descriptor   *source.FileDescriptor
		Range        partitioner.ByteRange
		Probe        *SchemaProbe
		Options      *options.ReadOptions
		ColumnWidths []int
	}
)

var (
	ErrSchemaMismatch = errors.New("columns must be the same across all rows")
	ErrMalformedRow   = errors.New("row has more fields than columns")
	ErrChunkParse     = errors.New("chunk parse failed")
	ErrUnknownFormat  = errors.New("unknown format")
)

// ForFormat returns the parser for a format
func ForFormat(f options.Format) (Parser, error) {
	switch f {
	case options.FormatCSV, "":
		return &Delimited{}, nil
	case options.FormatNDJSON:
		return &Records{}, nil
	}
	return nil, fmt.Errorf("format %q: %w", f, ErrUnknownFormat)
}

// HasIndex reports whether the probe selected an index column
func (p *SchemaProbe) HasIndex() bool {
	return p.IndexPosition >= 0
}

// ParseChunk opens the task's own handle on its byte range and parses it. With an
// encoding set, the first line of the source is decoded along with the range and dropped
// afterwards so stateful decoders see the start of the stream.
func ParseChunk(ctx context.Context, p Parser, task *ChunkTask) (*table.ChunkResult, error) {
	rc, err := task.Descriptor.OpenRange(task.Range.Start, task.Range.End)
	if err != nil {
		return nil, fmt.Errorf("error in OpenRange: %w", err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if task.Options.Encoding != "" {
		first, err := task.Descriptor.ReadFirstLine()
		if err != nil {
			return nil, fmt.Errorf("error in ReadFirstLine: %w", err)
		}
		raw, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("error reading range: %w", err)
		}
		if len(first) == 0 || first[len(first)-1] != '\n' {
			first = append(first, '\n')
		}
		decoded, err := source.DecodeBytes(append(first, raw...), task.Options.Encoding)
		if err != nil {
			return nil, fmt.Errorf("error in DecodeBytes: %w", err)
		}
		if i := bytes.IndexByte(decoded, '\n'); i >= 0 {
			decoded = decoded[i+1:]
		}
		r = bytes.NewReader(decoded)
	}

	res, err := p.Parse(ctx, r, task, -1)
	if err != nil {
		return nil, err
	}
	res.Bytes = task.Range.Len()
	return res, nil
}

func chunkErr(index int, err error) error {
	return fmt.Errorf("%w: chunk %d: %w", ErrChunkParse, index, err)
}
