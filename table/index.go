package table

import (
	"fmt"

	"github.com/danthegoodman1/splitread/dtype"
	"github.com/danthegoodman1/splitread/utils"
)

// Index labels the rows of a table. An implicit index is the range [Start, Stop), an
// explicit one holds a value per row.
type Index struct {
	Name  string
	Dtype dtype.Dtype
	Start int
	Stop  int
	// Values is nil for an implicit index
	Values []any
}

func RangeIndex(start, stop int) Index {
	return Index{Start: start, Stop: stop, Dtype: dtype.Int64Type}
}

func (i Index) IsImplicit() bool {
	return i.Values == nil
}

func (i Index) Len() int {
	if i.IsImplicit() {
		return i.Stop - i.Start
	}
	return len(i.Values)
}

// At returns the label of the row at position pos
func (i Index) At(pos int) any {
	if i.IsImplicit() {
		return int64(i.Start + pos)
	}
	return i.Values[pos]
}

// BuildIndex concatenates the chunk index fragments in chunk order. When no chunk carries a
// fragment the index is the range starting at start.
func BuildIndex(results []*ChunkResult, name string, start int, na dtype.NASet) (Index, error) {
	explicit := false
	for _, r := range results {
		if r.IndexFragment != nil {
			explicit = true
			break
		}
	}
	total := utils.SumInts(RowLengths(results))
	if !explicit {
		return RangeIndex(start, start+total), nil
	}

	observed := dtype.Dtype{Kind: dtype.Empty}
	for _, r := range results {
		observed = dtype.Promote(observed, r.IndexDtype)
	}
	idx := Index{
		Name:   name,
		Dtype:  observed.Resolve(),
		Values: make([]any, 0, total),
	}
	for _, r := range results {
		if len(r.IndexFragment) != r.RowCount {
			return Index{}, fmt.Errorf("chunk %d has %d index values for %d rows: %w", r.Index, len(r.IndexFragment), r.RowCount, ErrInvariant)
		}
		for _, c := range r.IndexFragment {
			v, err := dtype.Convert(c.Text, c.Null, c.Quoted, idx.Dtype, na)
			if err != nil {
				return Index{}, fmt.Errorf("error in dtype.Convert for index of chunk %d: %w", r.Index, err)
			}
			idx.Values = append(idx.Values, v)
		}
	}
	return idx, nil
}
