package parsers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/danthegoodman1/gojsonutils"
	"github.com/danthegoodman1/splitread/dtype"
	"github.com/danthegoodman1/splitread/options"
	"github.com/danthegoodman1/splitread/partitioner"
	"github.com/danthegoodman1/splitread/table"
	"github.com/rs/zerolog"
)

// Records parses newline delimited JSON objects, flattening nested objects into columns
type Records struct{}

var (
	ErrNotObject  = errors.New("record is not a JSON object")
	ErrNotFlatMap = errors.New("flattened record is not a map")
)

func (rp *Records) Quote() byte {
	return 0
}

// ProbeSchema uses opts.Columns when given, else the flattened keys of the first record
func (rp *Records) ProbeSchema(ctx context.Context, r io.Reader, opts *options.ReadOptions) (*SchemaProbe, error) {
	columns := opts.Columns
	if len(columns) == 0 {
		rr := partitioner.NewRecordReader(r, 0, 0)
		scan := &partitioner.HeaderScanner{Header: options.HeaderNone, SkipRows: opts.SkipRows}
		if _, err := scan.Scan(rr); err != nil {
			return nil, fmt.Errorf("error in HeaderScanner.Scan: %w", err)
		}
		_, isCount := options.SkipRowCount(opts.SkipRows)
		for {
			rec, line, err := rr.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("error in RecordReader.Next: %w", err)
			}
			if !rr.IsEffective(rec) || (!isCount && opts.SkipRows.Skip(line)) {
				continue
			}
			columns, _, err = flattenRecord(rec)
			if err != nil {
				return nil, fmt.Errorf("error flattening first record: %w", err)
			}
			break
		}
	}

	probe := &SchemaProbe{
		FileColumns:   columns,
		Columns:       columns,
		IndexPosition: -1,
		Inference:     table.Inference{NA: dtype.NewNASet(opts.NAValues)},
	}
	for i, c := range columns {
		date := opts.ParseDates.IsDateColumn(c)
		probe.Layout = append(probe.Layout, ColumnSource{Name: c, Positions: []int{i}, Date: date})
		probe.Dtypes = append(probe.Dtypes, dtype.ObjectType)
		probe.Inference.Dates = append(probe.Inference.Dates, date)
	}
	zerolog.Ctx(ctx).Debug().Strs("columns", columns).Msg("probed record schema")
	return probe, nil
}

// flattenRecord returns the flattened keys in top level key order, nested keys sorted
// within their top level key, and the flattened values
func flattenRecord(line []byte) ([]string, map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("error in dec.Token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, ErrNotObject
	}

	var keys []string
	values := make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("error in dec.Token: %w", err)
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("error decoding value of %q: %w", key, err)
		}
		if _, nested := v.(map[string]any); !nested {
			if _, dup := values[key]; !dup {
				keys = append(keys, key)
			}
			values[key] = v
			continue
		}
		flat, err := gojsonutils.Flatten(map[string]any{key: v}, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("error in gojsonutils.Flatten: %w", err)
		}
		flatMap, ok := flat.(map[string]any)
		if !ok {
			return nil, nil, ErrNotFlatMap
		}
		sub := make([]string, 0, len(flatMap))
		for k := range flatMap {
			sub = append(sub, k)
		}
		sort.Strings(sub)
		for _, k := range sub {
			if _, dup := values[k]; !dup {
				keys = append(keys, k)
			}
			values[k] = flatMap[k]
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("error in dec.Token: %w", err)
	}
	return keys, values, nil
}

func cellFromValue(v any) table.Cell {
	switch val := v.(type) {
	case nil:
		return table.Cell{Null: true}
	case string:
		return table.Cell{Text: val, Quoted: true}
	case json.Number:
		return table.Cell{Text: val.String()}
	case float64:
		return table.Cell{Text: fmt.Sprint(val)}
	case bool:
		if val {
			return table.Cell{Text: "True"}
		}
		return table.Cell{Text: "False"}
	default:
		b, _ := json.Marshal(val)
		return table.Cell{Text: string(b), Quoted: true}
	}
}

// Parse reads one record per line. The union of the chunk's columns must equal the probed
// column set. Key order within records does not matter, output columns keep the probed order.
func (rp *Records) Parse(ctx context.Context, r io.Reader, task *ChunkTask, limit int) (*table.ChunkResult, error) {
	probe := task.Probe
	position := make(map[string]int, len(probe.Columns))
	for i, c := range probe.Columns {
		position[c] = i
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	cols := make([][]table.Cell, len(probe.Columns))
	var seen []string
	seenSet := make(map[string]struct{})
	rows := 0
	for (limit < 0 || rows < limit) && sc.Scan() {
		if rows%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		keys, values, err := flattenRecord(line)
		if err != nil {
			return nil, chunkErr(task.Index, fmt.Errorf("row %d: %w", rows, err))
		}
		for _, k := range keys {
			if _, ok := seenSet[k]; !ok {
				seenSet[k] = struct{}{}
				seen = append(seen, k)
			}
			if _, ok := position[k]; !ok {
				return nil, chunkErr(task.Index, fmt.Errorf("unexpected column %q: %w", k, ErrSchemaMismatch))
			}
		}
		for i, c := range probe.Columns {
			v, ok := values[c]
			if !ok {
				cols[i] = append(cols[i], table.Cell{Null: true})
				continue
			}
			cols[i] = append(cols[i], cellFromValue(v))
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, chunkErr(task.Index, err)
	}
	// every seen key is in position, so equal sizes mean equal sets
	if rows > 0 && len(seen) != len(probe.Columns) {
		return nil, chunkErr(task.Index, fmt.Errorf("got columns %v, expected %v: %w", seen, probe.Columns, ErrSchemaMismatch))
	}

	res := &table.ChunkResult{
		Index:    task.Index,
		Blocks:   table.SplitColumns(cols, task.ColumnWidths),
		RowCount: rows,
		Columns:  seen,
	}
	probe.Inference.Observe(res)
	return res, nil
}
