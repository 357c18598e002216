package parsers

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/danthegoodman1/splitread/dtype"
	"github.com/danthegoodman1/splitread/options"
	"github.com/danthegoodman1/splitread/partitioner"
	"github.com/danthegoodman1/splitread/table"
	"github.com/danthegoodman1/splitread/utils"
	"github.com/rs/zerolog"
)

// Delimited parses CSV-like text with a single global header
type Delimited struct{}

func (d *Delimited) Quote() byte {
	return '"'
}

func newCSVReader(r io.Reader, opts *options.ReadOptions) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = opts.Comma()
	cr.Comment = opts.Comment
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

func commentByte(opts *options.ReadOptions) byte {
	if opts.Comment > 0 && opts.Comment < 0x80 {
		return byte(opts.Comment)
	}
	return 0
}

// ProbeSchema reads the header, or the first row when there is none, and resolves the
// column selection, index column and date layout against it
func (d *Delimited) ProbeSchema(ctx context.Context, r io.Reader, opts *options.ReadOptions) (*SchemaProbe, error) {
	rr := partitioner.NewRecordReader(r, d.Quote(), commentByte(opts))
	scanner := &partitioner.HeaderScanner{Header: opts.Header, Names: opts.Names, SkipRows: opts.SkipRows}
	scan, err := scanner.Scan(rr)
	if err != nil {
		return nil, fmt.Errorf("error in HeaderScanner.Scan: %w", err)
	}

	var fileColumns []string
	switch {
	case len(opts.Names) > 0:
		fileColumns = append([]string(nil), opts.Names...)
	case scan.Header != nil:
		fields, err := newCSVReader(bytes.NewReader(scan.Header), opts).Read()
		if err != nil {
			return nil, fmt.Errorf("error parsing header: %w", err)
		}
		fileColumns = mangleNames(fields)
	default:
		n, err := firstRowWidth(rr, opts)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			fileColumns = append(fileColumns, strconv.Itoa(i))
		}
	}

	probe, err := buildLayout(fileColumns, opts)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Strs("fileColumns", probe.FileColumns).Strs("columns", probe.Columns).Int("indexPosition", probe.IndexPosition).Msg("probed schema")
	return probe, nil
}

// firstRowWidth is the field count of the first effective data row, 0 when there is none
func firstRowWidth(rr *partitioner.RecordReader, opts *options.ReadOptions) (int, error) {
	_, isCount := options.SkipRowCount(opts.SkipRows)
	for {
		rec, line, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("error in RecordReader.Next: %w", err)
		}
		if !rr.IsEffective(rec) || (!isCount && opts.SkipRows.Skip(line)) {
			continue
		}
		fields, err := newCSVReader(bytes.NewReader(rec), opts).Read()
		if err != nil {
			return 0, fmt.Errorf("error parsing first row: %w", err)
		}
		return len(fields), nil
	}
}

// mangleNames renames duplicates to name.1, name.2 and empty names to "Unnamed: i"
func mangleNames(fields []string) []string {
	out := make([]string, len(fields))
	seen := make(map[string]int, len(fields))
	for i, f := range fields {
		name := f
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[name]; ok {
			for {
				n++
				candidate := fmt.Sprintf("%s.%d", name, n)
				if _, taken := seen[candidate]; !taken {
					seen[name] = n
					name = candidate
					break
				}
			}
		}
		if _, ok := seen[name]; !ok {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

// resolveUseCols returns the selected file positions in file order
func resolveUseCols(fileColumns []string, sel *options.ColumnSelector) ([]int, error) {
	if sel == nil || (len(sel.Names) == 0 && len(sel.Positions) == 0) {
		return nil, nil
	}
	var positions []int
	if sel.IsSymbolic() {
		for _, name := range sel.Names {
			i := utils.IndexOf(fileColumns, name)
			if i < 0 {
				return nil, fmt.Errorf("usecols %q: %w", name, options.ErrUnknownColumn)
			}
			positions = append(positions, i)
		}
	} else {
		for _, p := range sel.Positions {
			if p >= len(fileColumns) {
				return nil, fmt.Errorf("usecols position %d with %d columns: %w", p, len(fileColumns), options.ErrColumnOutRange)
			}
			positions = append(positions, p)
		}
	}
	sort.Ints(positions)
	return positions, nil
}

func buildLayout(fileColumns []string, opts *options.ReadOptions) (*SchemaProbe, error) {
	probe := &SchemaProbe{
		FileColumns:   fileColumns,
		IndexPosition: -1,
	}
	useCols, err := resolveUseCols(fileColumns, opts.UseCols)
	if err != nil {
		return nil, err
	}
	probe.UseCols = useCols
	selected := useCols
	if selected == nil {
		selected = make([]int, len(fileColumns))
		for i := range selected {
			selected[i] = i
		}
	}

	if ref := opts.IndexColumn; ref != nil {
		if ref.Name != "" {
			for _, p := range selected {
				if fileColumns[p] == ref.Name {
					probe.IndexPosition = p
				}
			}
			if probe.IndexPosition < 0 {
				return nil, fmt.Errorf("index column %q: %w", ref.Name, options.ErrUnknownColumn)
			}
		} else {
			if ref.Position >= len(selected) {
				return nil, fmt.Errorf("index column position %d with %d columns: %w", ref.Position, len(selected), options.ErrColumnOutRange)
			}
			probe.IndexPosition = selected[ref.Position]
		}
		probe.IndexName = fileColumns[probe.IndexPosition]
	}

	var layout []ColumnSource
	for _, p := range selected {
		if p == probe.IndexPosition {
			continue
		}
		name := fileColumns[p]
		layout = append(layout, ColumnSource{Name: name, Positions: []int{p}, Date: opts.ParseDates.IsDateColumn(name)})
	}
	if opts.ParseDates != nil {
		for _, name := range opts.ParseDates.Columns {
			if name == probe.IndexName && probe.HasIndex() {
				probe.Inference.IndexDate = true
				continue
			}
			found := false
			for _, c := range layout {
				found = found || c.Name == name
			}
			if !found {
				return nil, fmt.Errorf("parse_dates %q: %w", name, options.ErrUnknownColumn)
			}
		}
		layout, err = table.RegroupDates(layout, opts.ParseDates.Groups,
			func(c ColumnSource) string { return c.Name },
			func(g options.DateGroup, members []ColumnSource) ColumnSource {
				merged := ColumnSource{Name: g.GroupName(), Date: true}
				for _, m := range members {
					merged.Positions = append(merged.Positions, m.Positions...)
				}
				return merged
			},
		)
		if err != nil {
			return nil, fmt.Errorf("error in RegroupDates: %w", err)
		}
	}

	probe.Layout = layout
	probe.Inference.NA = dtype.NewNASet(opts.NAValues)
	for _, c := range layout {
		probe.Columns = append(probe.Columns, c.Name)
		probe.Dtypes = append(probe.Dtypes, dtype.ObjectType)
		probe.Inference.Dates = append(probe.Inference.Dates, c.Date)
	}
	return probe, nil
}
