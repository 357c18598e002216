package part

import (
	"math"
	"testing"

	"github.com/danthegoodman1/splitread/dtype"
	"github.com/danthegoodman1/splitread/table"
	"github.com/stretchr/testify/require"
)

func TestColumnMarks(t *testing.T) {
	tbl := &table.Table{
		Columns:      []string{"a", "b"},
		Dtypes:       []dtype.Dtype{dtype.Float64Type, dtype.ObjectType},
		Index:        table.RangeIndex(0, 3),
		RowLengths:   []int{2, 1},
		ColumnWidths: []int{2},
		Grid: [][]*table.Block{
			{{Columns: [][]any{{1.0, math.NaN()}, {"x", nil}}}},
			{{Columns: [][]any{{2.0}, {nil}}}},
		},
	}
	marks := ColumnMarks("p1", tbl)
	require.Equal(t, []ColumnMark{
		{PartID: "p1", ColumnName: "a", Dtype: "float64", RowCount: 3, NullCount: 1},
		{PartID: "p1", ColumnName: "b", Position: 1, Dtype: "object", RowCount: 3, NullCount: 2},
	}, marks)
}
