package table

import (
	"fmt"

	"github.com/danthegoodman1/splitread/dtype"
)

// Assemble materializes the chunk results into a Table. results must be in chunk order and
// dtypes must already be reconciled.
func Assemble(results []*ChunkResult, columns []string, widths []int, dtypes []dtype.Dtype, index Index, na dtype.NASet) (*Table, error) {
	if len(dtypes) != len(columns) {
		return nil, fmt.Errorf("%d dtypes for %d columns: %w", len(dtypes), len(columns), ErrInvariant)
	}
	t := &Table{
		Columns:      columns,
		Dtypes:       dtypes,
		Index:        index,
		RowLengths:   RowLengths(results),
		ColumnWidths: widths,
		Grid:         make([][]*Block, len(results)),
	}
	for i, r := range results {
		if len(r.Blocks) != len(widths) {
			return nil, fmt.Errorf("chunk %d has %d column blocks, expected %d: %w", r.Index, len(r.Blocks), len(widths), ErrInvariant)
		}
		row := make([]*Block, len(widths))
		col := 0
		for j, raw := range r.Blocks {
			b, err := materialize(raw, r.RowCount, dtypes[col:col+widths[j]], na)
			if err != nil {
				return nil, fmt.Errorf("error materializing chunk %d column block %d: %w", r.Index, j, err)
			}
			row[j] = b
			col += widths[j]
		}
		t.Grid[i] = row
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func materialize(raw *RawBlock, rows int, dtypes []dtype.Dtype, na dtype.NASet) (*Block, error) {
	if len(raw.Columns) != len(dtypes) {
		return nil, fmt.Errorf("%d raw columns for %d dtypes: %w", len(raw.Columns), len(dtypes), ErrInvariant)
	}
	b := &Block{Columns: make([][]any, len(raw.Columns))}
	for c, cells := range raw.Columns {
		if len(cells) != rows {
			return nil, fmt.Errorf("column has %d cells for %d rows: %w", len(cells), rows, ErrInvariant)
		}
		vals := make([]any, len(cells))
		for r, cell := range cells {
			v, err := dtype.Convert(cell.Text, cell.Null, cell.Quoted, dtypes[c], na)
			if err != nil {
				return nil, fmt.Errorf("error in dtype.Convert: %w", err)
			}
			vals[r] = v
		}
		b.Columns[c] = vals
	}
	return b, nil
}
