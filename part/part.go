package part

import (
	"math"
	"time"

	"github.com/danthegoodman1/splitread/table"
)

type (
	// Part is one exported read: a parquet file in the datastore and its metadata
	Part struct {
		ID        string
		Alive     bool
		CreatedAt time.Time
		// Source is the input that was read
		Source string
		// Key is the datastore key of the parquet file
		Key      string
		Route    string
		RowCount int64
		Bytes    int64
		// RowLengths are the row counts of each chunk the read produced
		RowLengths []int
	}

	ColumnMark struct {
		PartID     string
		ColumnName string
		// Position is the column's place in the exported table
		Position int
		Dtype    string
		// RowCount is the number of rows within this column
		RowCount int64
		// NullCount is the number of missing values within this column
		NullCount int64
	}
)

func isMissing(v any) bool {
	if v == nil {
		return true
	}
	f, ok := v.(float64)
	return ok && math.IsNaN(f)
}

// ColumnMarks summarizes every column of t for the part
func ColumnMarks(partID string, t *table.Table) []ColumnMark {
	marks := make([]ColumnMark, 0, len(t.Columns))
	for i, name := range t.Columns {
		mark := ColumnMark{
			PartID:     partID,
			ColumnName: name,
			Position:   i,
			Dtype:      t.Dtypes[i].String(),
		}
		for _, v := range t.Column(i) {
			mark.RowCount++
			if isMissing(v) {
				mark.NullCount++
			}
		}
		marks = append(marks, mark)
	}
	return marks
}
