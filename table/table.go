package table

import (
	"errors"
	"fmt"

	"github.com/danthegoodman1/splitread/dtype"
	"github.com/danthegoodman1/splitread/utils"
)

type (
	// Cell is a raw token as parsed from the source, before a column type is known
	Cell struct {
		Text string
		// Null is an explicit null (JSON null)
		Null bool
		// Quoted is an explicit string (JSON string) that is never inferred as a number
		Quoted bool
	}

	// RawBlock is one column split of one chunk, column-major
	RawBlock struct {
		Columns [][]Cell
	}

	// Block is a RawBlock materialized with the reconciled dtypes, column-major
	Block struct {
		Columns [][]any
	}

	// Table is the reassembled grid. Grid is indexed [row chunk][column split].
	Table struct {
		Columns      []string
		Dtypes       []dtype.Dtype
		Index        Index
		RowLengths   []int
		ColumnWidths []int
		Grid         [][]*Block
	}

	// Series is a squeezed single column table
	Series struct {
		Name   string
		Dtype  dtype.Dtype
		Index  Index
		Values []any
	}

	Row struct {
		// The row number within the table
		Num int64
		// The row chunk the row was parsed in
		Chunk int64
		Index any

		// The list of column names, same order as ColVals
		ColNames []string
		// The list of column values, same order as ColNames
		ColVals []any
	}
)

var ErrInvariant = errors.New("table invariant violated")

func (b *RawBlock) NumRows() int {
	if b == nil || len(b.Columns) == 0 {
		return 0
	}
	return len(b.Columns[0])
}

func (b *Block) NumRows() int {
	if b == nil || len(b.Columns) == 0 {
		return 0
	}
	return len(b.Columns[0])
}

func (t *Table) NumRows() int {
	return utils.SumInts(t.RowLengths)
}

func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// Validate checks the grid shape against the row lengths, column widths and index
func (t *Table) Validate() error {
	if t.NumRows() != t.Index.Len() {
		return fmt.Errorf("row lengths sum to %d but index has %d entries: %w", t.NumRows(), t.Index.Len(), ErrInvariant)
	}
	if utils.SumInts(t.ColumnWidths) != len(t.Columns) {
		return fmt.Errorf("column widths sum to %d but there are %d columns: %w", utils.SumInts(t.ColumnWidths), len(t.Columns), ErrInvariant)
	}
	if len(t.Dtypes) != len(t.Columns) {
		return fmt.Errorf("%d dtypes for %d columns: %w", len(t.Dtypes), len(t.Columns), ErrInvariant)
	}
	if len(t.Grid) != len(t.RowLengths) {
		return fmt.Errorf("grid has %d row blocks but %d row lengths: %w", len(t.Grid), len(t.RowLengths), ErrInvariant)
	}
	for i, row := range t.Grid {
		if len(row) != len(t.ColumnWidths) {
			return fmt.Errorf("row block %d has %d column blocks, expected %d: %w", i, len(row), len(t.ColumnWidths), ErrInvariant)
		}
		for j, b := range row {
			if len(b.Columns) != t.ColumnWidths[j] || b.NumRows() != t.RowLengths[i] && t.ColumnWidths[j] > 0 {
				return fmt.Errorf("block (%d, %d) is %dx%d, expected %dx%d: %w", i, j, b.NumRows(), len(b.Columns), t.RowLengths[i], t.ColumnWidths[j], ErrInvariant)
			}
		}
	}
	return nil
}

// locate maps a global column position to its column split and offset within it
func (t *Table) locate(col int) (split, offset int) {
	for split, w := range t.ColumnWidths {
		if col < w {
			return split, col
		}
		col -= w
	}
	return -1, -1
}

// Column concatenates a column's values across every row block
func (t *Table) Column(col int) []any {
	split, offset := t.locate(col)
	if split < 0 {
		return nil
	}
	out := make([]any, 0, t.NumRows())
	for _, row := range t.Grid {
		out = append(out, row[split].Columns[offset]...)
	}
	return out
}

// ColumnByName returns nil when the column does not exist
func (t *Table) ColumnByName(name string) []any {
	i := utils.IndexOf(t.Columns, name)
	if i < 0 {
		return nil
	}
	return t.Column(i)
}

// Rows returns up to limit rows starting at offset, limit < 0 returns the rest
func (t *Table) Rows(offset, limit int) []Row {
	var rows []Row
	num := 0
	for chunk, rowBlocks := range t.Grid {
		for r := 0; r < t.RowLengths[chunk]; r++ {
			if num < offset {
				num++
				continue
			}
			if limit >= 0 && len(rows) >= limit {
				return rows
			}
			row := Row{
				Num:      int64(num),
				Chunk:    int64(chunk),
				Index:    t.Index.At(num),
				ColNames: t.Columns,
				ColVals:  make([]any, 0, len(t.Columns)),
			}
			for _, b := range rowBlocks {
				for _, col := range b.Columns {
					row.ColVals = append(row.ColVals, col[r])
				}
			}
			rows = append(rows, row)
			num++
		}
	}
	return rows
}

// Squeeze returns the only column as a Series. ok is false unless there is exactly one
// column.
func (t *Table) Squeeze() (s *Series, ok bool) {
	if len(t.Columns) != 1 {
		return nil, false
	}
	return &Series{
		Name:   t.Columns[0],
		Dtype:  t.Dtypes[0],
		Index:  t.Index,
		Values: t.Column(0),
	}, true
}

// DtypeNames returns the resolved dtype names in column order
func (t *Table) DtypeNames() []string {
	out := make([]string, len(t.Dtypes))
	for i, d := range t.Dtypes {
		out[i] = d.String()
	}
	return out
}
