package pipeline

import (
	"context"
	"io"

	"github.com/danthegoodman1/splitread/parsers"
	"github.com/danthegoodman1/splitread/table"
)

// TableIterator yields tables of at most ChunkSize rows. Each table's dtypes are inferred
// from its own rows, and the implicit index continues across tables.
type TableIterator struct {
	rows      *table.ChunkResult
	probe     *parsers.SchemaProbe
	widths    []int
	chunkSize int
	pos       int
}

func newTableIterator(rows *table.ChunkResult, probe *parsers.SchemaProbe, widths []int, chunkSize int) *TableIterator {
	return &TableIterator{rows: rows, probe: probe, widths: widths, chunkSize: chunkSize}
}

// Next returns the next table, or io.EOF once every row has been yielded
func (it *TableIterator) Next(ctx context.Context) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.pos >= it.rows.RowCount {
		return nil, io.EOF
	}
	end := it.pos + it.chunkSize
	if end > it.rows.RowCount {
		end = it.rows.RowCount
	}
	chunk := it.rows.Slice(it.pos, end)
	chunk.Index = 0
	it.probe.Inference.Observe(chunk)

	t, err := join([]*table.ChunkResult{chunk}, it.probe, it.widths, 0, it.pos)
	if err != nil {
		return nil, err
	}
	it.pos = end
	return t, nil
}

// All drains the iterator
func (it *TableIterator) All(ctx context.Context) ([]*table.Table, error) {
	var out []*table.Table
	for {
		t, err := it.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
}
