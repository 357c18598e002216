package parquet_accumulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/danthegoodman1/splitread/table"
	"github.com/rs/zerolog"
	"github.com/xitongsys/parquet-go/writer"
)

var ErrDuplicateColumn = errors.New("columns collide after renaming")

// jsonValue converts a materialized cell to what the parquet JSON writer expects. Missing
// values become null.
func jsonValue(v any) any {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case time.Time:
		return val.UnixMilli()
	default:
		return val
	}
}

// WriteTable writes every row of t to w as a parquet file, returning the row count
func WriteTable(ctx context.Context, w io.Writer, t *table.Table, np int64) (int64, error) {
	logger := zerolog.Ctx(ctx)
	psa := NewParquetAccumulator()
	psa.AddTable(t)
	schema, err := psa.GetSchemaString()
	if err != nil {
		return 0, fmt.Errorf("error in GetSchemaString: %w", err)
	}
	names := psa.GetColumnNames()
	explicitIndex := !t.Index.IsImplicit()
	expected := len(t.Columns)
	if explicitIndex {
		expected++
	}
	if len(names) != expected {
		return 0, fmt.Errorf("%d parquet columns for %d table columns: %w", len(names), expected, ErrDuplicateColumn)
	}

	pw, err := writer.NewJSONWriterFromWriter(schema, w, np)
	if err != nil {
		return 0, fmt.Errorf("error in writer.NewJSONWriterFromWriter: %w", err)
	}

	var written int64
	for _, row := range t.Rows(0, -1) {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		rowMap := make(map[string]any, len(names))
		vals := row.ColVals
		if explicitIndex {
			vals = append([]any{row.Index}, vals...)
		}
		for i, v := range vals {
			rowMap[names[i]] = jsonValue(v)
		}
		b, err := json.Marshal(rowMap)
		if err != nil {
			return written, fmt.Errorf("error in json.Marshal: %w", err)
		}
		if err := pw.Write(string(b)); err != nil {
			return written, fmt.Errorf("error in pw.Write: %w", err)
		}
		written++
	}
	if err := pw.WriteStop(); err != nil {
		return written, fmt.Errorf("error in pw.WriteStop: %w", err)
	}
	logger.Debug().Int64("rows", written).Strs("columns", names).Strs("types", psa.GetColumnTypes()).Msg("wrote parquet")
	return written, nil
}
