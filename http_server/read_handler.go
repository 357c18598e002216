package http_server

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"unicode/utf8"

	"github.com/danthegoodman1/splitread/options"
	"github.com/danthegoodman1/splitread/parsers"
	"github.com/danthegoodman1/splitread/pipeline"
	"github.com/danthegoodman1/splitread/source"
	"github.com/danthegoodman1/splitread/table"
)

type (
	DateGroupRequest struct {
		Name    string
		Columns []string `validate:"min=1"`
	}

	// ReadRequest is the JSON form of a read. Path is a local path or an s3:// URI.
	ReadRequest struct {
		Path      string `validate:"required"`
		Format    string `validate:"omitempty,oneof=csv ndjson"`
		Delimiter string `validate:"max=1"`
		Comment   string `validate:"max=1"`
		// Header is the header row, -1 for no header, nil to infer
		Header *int `validate:"omitempty,min=-1"`
		Names  []string
		// IndexColumn names the index column, IndexPosition places it within the selection
		IndexColumn     string
		IndexPosition   *int `validate:"omitempty,min=0"`
		UseCols         []string
		UseColPositions []int
		Columns         []string
		Compression     string
		Encoding        string
		SkipRows        int   `validate:"min=0"`
		SkipRowSet      []int `validate:"omitempty,dive,min=0"`
		ParseDates      []string
		DateGroups      []DateGroupRequest `validate:"dive"`
		SkipFooter      int                `validate:"min=0"`
		Squeeze         bool
		NRows           *int `validate:"omitempty,min=0"`
		ChunkSize       int  `validate:"min=0"`
		MaxPartitions   int  `validate:"min=0"`
		NAValues        []string
		// PreviewRows is how many rows of each table to return, -1 for all
		PreviewRows int `validate:"min=-1"`
	}

	TableSummary struct {
		Columns      []string
		Dtypes       []string
		IndexName    string `json:",omitempty"`
		IndexDtype   string
		RowCount     int
		RowLengths   []int
		ColumnWidths []int
		Rows         [][]any `json:",omitempty"`
		Index        []any   `json:",omitempty"`
	}

	SeriesSummary struct {
		Name   string
		Dtype  string
		Values []any
	}

	ReadResponse struct {
		Route  string
		Reason string         `json:",omitempty"`
		Table  *TableSummary  `json:",omitempty"`
		Series *SeriesSummary `json:",omitempty"`
		// Chunks holds one summary per table when ChunkSize was requested
		Chunks []*TableSummary `json:",omitempty"`
	}
)

func singleRune(s string) rune {
	if s == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// Options converts the request into read options
func (r *ReadRequest) Options() *options.ReadOptions {
	opts := &options.ReadOptions{
		Format:        options.Format(r.Format),
		MaxPartitions: r.MaxPartitions,
		Delimiter:     singleRune(r.Delimiter),
		Comment:       singleRune(r.Comment),
		Header:        options.HeaderInfer,
		Names:         r.Names,
		Columns:       r.Columns,
		Compression:   source.Compression(r.Compression),
		Encoding:      r.Encoding,
		SkipFooter:    r.SkipFooter,
		Squeeze:       r.Squeeze,
		NRows:         r.NRows,
		ChunkSize:     r.ChunkSize,
		NAValues:      r.NAValues,
	}
	if r.Header != nil {
		if *r.Header < 0 {
			opts.Header = options.HeaderNone
		} else {
			opts.Header = options.HeaderRow(*r.Header)
		}
	}
	switch {
	case r.IndexColumn != "":
		opts.IndexColumn = options.ByName(r.IndexColumn)
	case r.IndexPosition != nil:
		opts.IndexColumn = options.ByPosition(*r.IndexPosition)
	}
	if len(r.UseCols) > 0 || len(r.UseColPositions) > 0 {
		opts.UseCols = &options.ColumnSelector{Names: r.UseCols, Positions: r.UseColPositions}
	}
	switch {
	case len(r.SkipRowSet) > 0:
		opts.SkipRows = options.SkipSet(r.SkipRowSet)
	case r.SkipRows > 0:
		opts.SkipRows = options.SkipCount(r.SkipRows)
	}
	if len(r.ParseDates) > 0 || len(r.DateGroups) > 0 {
		opts.ParseDates = &options.ParseDates{Columns: r.ParseDates}
		for _, g := range r.DateGroups {
			opts.ParseDates.Groups = append(opts.ParseDates.Groups, options.DateGroup{Name: g.Name, Columns: g.Columns})
		}
	}
	return opts
}

func (r *ReadRequest) Input() source.Input {
	return source.FromPath(r.Path)
}

// jsonSafe replaces values encoding/json cannot encode
func jsonSafe(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

func previewLimit(n, rows int) int {
	if n < 0 || n > rows {
		return rows
	}
	return n
}

func summarizeTable(t *table.Table, preview int) *TableSummary {
	ts := &TableSummary{
		Columns:      t.Columns,
		Dtypes:       t.DtypeNames(),
		IndexName:    t.Index.Name,
		IndexDtype:   t.Index.Dtype.String(),
		RowCount:     t.NumRows(),
		RowLengths:   t.RowLengths,
		ColumnWidths: t.ColumnWidths,
	}
	limit := previewLimit(preview, ts.RowCount)
	if limit == 0 {
		return ts
	}
	for _, row := range t.Rows(0, limit) {
		vals := make([]any, len(row.ColVals))
		for i, v := range row.ColVals {
			vals[i] = jsonSafe(v)
		}
		ts.Rows = append(ts.Rows, vals)
		ts.Index = append(ts.Index, jsonSafe(row.Index))
	}
	return ts
}

func summarizeSeries(s *table.Series, preview int) *SeriesSummary {
	ss := &SeriesSummary{Name: s.Name, Dtype: s.Dtype.String(), Values: []any{}}
	for _, v := range s.Values[:previewLimit(preview, len(s.Values))] {
		ss.Values = append(ss.Values, jsonSafe(v))
	}
	return ss
}

// isUsageError reports whether err was caused by the request rather than the server
func isUsageError(err error) bool {
	for _, target := range []error{
		options.ErrInvalidOption,
		options.ErrUnknownColumn,
		options.ErrColumnOutRange,
		source.ErrUnsupportedCompression,
		source.ErrZipEntries,
		source.ErrNotRegularFile,
		parsers.ErrSchemaMismatch,
		parsers.ErrMalformedRow,
		parsers.ErrChunkParse,
		parsers.ErrUnknownFormat,
		parsers.ErrNotObject,
		parsers.ErrNotFlatMap,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *HTTPServer) read(c *CustomContext, req *ReadRequest) (*pipeline.Result, error) {
	res, err := s.reader.Read(c.Request().Context(), req.Input(), req.Options())
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", req.Path, err)
	}
	return res, nil
}

func (s *HTTPServer) readError(c *CustomContext, err error) error {
	if isUsageError(err) || errors.Is(err, fs.ErrNotExist) {
		return c.UsageError(err)
	}
	return c.InternalError(err, "error reading file")
}

func (s *HTTPServer) ReadFile(c *CustomContext) error {
	var req ReadRequest
	if err := ValidateRequest(c, &req); err != nil {
		return err
	}

	res, err := s.read(c, &req)
	if err != nil {
		return s.readError(c, err)
	}

	resp := ReadResponse{Route: string(res.Route), Reason: string(res.Reason)}
	switch {
	case res.Series != nil:
		resp.Series = summarizeSeries(res.Series, req.PreviewRows)
	case res.Iterator != nil:
		tables, err := res.Iterator.All(c.Request().Context())
		if err != nil {
			return s.readError(c, err)
		}
		for _, t := range tables {
			resp.Chunks = append(resp.Chunks, summarizeTable(t, req.PreviewRows))
		}
	default:
		resp.Table = summarizeTable(res.Table, req.PreviewRows)
	}
	return c.JSON(http.StatusOK, resp)
}
