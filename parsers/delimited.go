package parsers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danthegoodman1/splitread/table"
)

// Parse reads the rows of r with the header disabled, using the probe's names and layout
func (d *Delimited) Parse(ctx context.Context, r io.Reader, task *ChunkTask, limit int) (*table.ChunkResult, error) {
	probe := task.Probe
	cr := newCSVReader(r, task.Options)
	cols := make([][]table.Cell, len(probe.Layout))
	var fragment []table.Cell
	if probe.HasIndex() {
		fragment = make([]table.Cell, 0)
	}

	rows := 0
	for limit < 0 || rows < limit {
		if rows%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, chunkErr(task.Index, err)
		}
		if len(fields) > len(probe.FileColumns) {
			line, _ := cr.FieldPos(0)
			return nil, chunkErr(task.Index, fmt.Errorf("line %d has %d fields for %d columns: %w", line, len(fields), len(probe.FileColumns), ErrMalformedRow))
		}
		for i, src := range probe.Layout {
			cols[i] = append(cols[i], cellAt(fields, src.Positions))
		}
		if fragment != nil {
			fragment = append(fragment, cellAt(fields, []int{probe.IndexPosition}))
		}
		rows++
	}

	res := &table.ChunkResult{
		Index:         task.Index,
		Blocks:        table.SplitColumns(cols, task.ColumnWidths),
		RowCount:      rows,
		IndexFragment: fragment,
	}
	probe.Inference.Observe(res)
	return res, nil
}

// cellAt reads the field at the given positions, joining several with a space. Fields past
// the end of a short row are missing.
func cellAt(fields []string, positions []int) table.Cell {
	if len(positions) == 1 {
		p := positions[0]
		if p >= len(fields) {
			return table.Cell{Null: true}
		}
		return table.Cell{Text: fields[p]}
	}
	parts := make([]string, 0, len(positions))
	for _, p := range positions {
		if p < len(fields) {
			parts = append(parts, fields[p])
		}
	}
	if len(parts) == 0 {
		return table.Cell{Null: true}
	}
	return table.Cell{Text: strings.Join(parts, " ")}
}
