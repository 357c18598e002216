package table

import (
	"github.com/danthegoodman1/splitread/dtype"
)

type (
	// ChunkResult is the output of parsing one byte range
	ChunkResult struct {
		// Index is the chunk ordinal by byte offset
		Index int
		// Blocks holds one RawBlock per column split
		Blocks   []*RawBlock
		RowCount int
		// IndexFragment is nil when the table has an implicit index
		IndexFragment []Cell
		IndexDtype    dtype.Dtype
		// Dtypes are the chunk scoped observations, one per output column
		Dtypes []dtype.Dtype
		// Columns is the ordered column set the chunk saw (records only)
		Columns []string
		// Bytes is the decoded byte length of the range
		Bytes int64
	}

	// Inference carries what is needed to observe dtypes of raw cells
	Inference struct {
		NA dtype.NASet
		// Dates flags output columns that are parsed as datetimes
		Dates     []bool
		IndexDate bool
	}
)

func (inf Inference) isDate(col int) bool {
	return col < len(inf.Dates) && inf.Dates[col]
}

// ObserveColumn joins the observations of every cell in a column
func (inf Inference) ObserveColumn(cells []Cell, date bool) dtype.Dtype {
	out := dtype.Dtype{Kind: dtype.Empty}
	for _, c := range cells {
		out = dtype.Promote(out, dtype.Classify(c.Text, c.Null, c.Quoted, date, inf.NA))
		if out.Kind == dtype.Object && out.HasNA {
			// nothing can change the observation any more
			break
		}
	}
	return out
}

// Observe fills the chunk's Dtypes and IndexDtype from its cells
func (inf Inference) Observe(res *ChunkResult) {
	res.Dtypes = res.Dtypes[:0]
	col := 0
	for _, b := range res.Blocks {
		for _, cells := range b.Columns {
			res.Dtypes = append(res.Dtypes, inf.ObserveColumn(cells, inf.isDate(col)))
			col++
		}
	}
	if res.IndexFragment != nil {
		res.IndexDtype = inf.ObserveColumn(res.IndexFragment, inf.IndexDate)
	}
}

// RowLengths returns the row count of each result in order
func RowLengths(results []*ChunkResult) []int {
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.RowCount
	}
	return out
}

// SplitColumns cuts a column-major slice of columns into blocks of the given widths
func SplitColumns(columns [][]Cell, widths []int) []*RawBlock {
	blocks := make([]*RawBlock, 0, len(widths))
	off := 0
	for _, w := range widths {
		blocks = append(blocks, &RawBlock{Columns: columns[off : off+w]})
		off += w
	}
	return blocks
}

// Slice returns rows [from, to) as a new result sharing the cells. Dtypes are left for the
// caller to observe again.
func (r *ChunkResult) Slice(from, to int) *ChunkResult {
	out := *r
	out.RowCount = to - from
	out.Dtypes = nil
	out.Blocks = make([]*RawBlock, len(r.Blocks))
	for i, b := range r.Blocks {
		cols := make([][]Cell, len(b.Columns))
		for c, cells := range b.Columns {
			cols[c] = cells[from:to]
		}
		out.Blocks[i] = &RawBlock{Columns: cols}
	}
	if r.IndexFragment != nil {
		out.IndexFragment = r.IndexFragment[from:to]
	}
	return &out
}
