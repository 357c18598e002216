package http_server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danthegoodman1/splitread/metastore"
	"github.com/danthegoodman1/splitread/parquet_accumulator"
	"github.com/danthegoodman1/splitread/part"
	"github.com/danthegoodman1/splitread/table"
	"github.com/danthegoodman1/splitread/utils"
	"github.com/rs/zerolog"
)

const parquetWriterParallelism = 4

type (
	ExportRequest struct {
		ReadRequest
	}

	ExportResponse struct {
		Route string
		Parts []part.Part
	}

	ListPartsResponse struct {
		Parts []part.Part
	}

	GetPartResponse struct {
		Part        part.Part
		ColumnMarks []part.ColumnMark
	}
)

func (s *HTTPServer) exportTable(c *CustomContext, source, route string, t *table.Table) (part.Part, error) {
	ctx := c.Request().Context()
	p := part.Part{
		ID:         utils.GenKSortedID("part_"),
		Alive:      true,
		CreatedAt:  time.Now(),
		Source:     source,
		Route:      route,
		RowCount:   int64(t.NumRows()),
		RowLengths: t.RowLengths,
	}
	p.Key = p.ID + ".parquet"

	var buf bytes.Buffer
	if _, err := parquet_accumulator.WriteTable(ctx, &buf, t, parquetWriterParallelism); err != nil {
		return p, fmt.Errorf("error in WriteTable: %w", err)
	}
	n, err := s.data.WriteFile(ctx, p.Key, &buf)
	if err != nil {
		return p, fmt.Errorf("error in WriteFile: %w", err)
	}
	p.Bytes = n

	if err := s.meta.CreatePart(ctx, p, part.ColumnMarks(p.ID, t)); err != nil {
		return p, fmt.Errorf("error in CreatePart: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("partID", p.ID).Int64("rows", p.RowCount).Int64("bytes", p.Bytes).Msg("exported part")
	return p, nil
}

// ExportFile reads a file and stores it as parquet parts, one per table
func (s *HTTPServer) ExportFile(c *CustomContext) error {
	var req ExportRequest
	if err := ValidateRequest(c, &req); err != nil {
		return err
	}
	// a series is exported as its one column table
	req.Squeeze = false

	res, err := s.read(c, &req.ReadRequest)
	if err != nil {
		return s.readError(c, err)
	}

	tables := []*table.Table{res.Table}
	if res.Iterator != nil {
		tables, err = res.Iterator.All(c.Request().Context())
		if err != nil {
			return s.readError(c, err)
		}
	}

	resp := ExportResponse{Route: string(res.Route), Parts: make([]part.Part, 0, len(tables))}
	for _, t := range tables {
		p, err := s.exportTable(c, req.Path, string(res.Route), t)
		if errors.Is(err, parquet_accumulator.ErrDuplicateColumn) {
			return c.UsageError(err)
		}
		if err != nil {
			return c.InternalError(err, "error exporting table")
		}
		resp.Parts = append(resp.Parts, p)
	}
	return c.JSON(http.StatusOK, resp)
}

// ListParts lists alive parts, optionally only those created after the part ID in ?after
func (s *HTTPServer) ListParts(c *CustomContext) error {
	var filters []metastore.FilterOption
	if after := c.QueryParam("after"); after != "" {
		filters = append(filters, metastore.FilterOption{Operator: metastore.GT, Val: after})
	}
	parts, err := s.meta.ListParts(c.Request().Context(), filters...)
	if err != nil {
		return c.InternalError(err, "error listing parts")
	}
	return c.JSON(http.StatusOK, ListPartsResponse{Parts: parts})
}

func (s *HTTPServer) GetPart(c *CustomContext) error {
	p, marks, err := s.meta.GetPart(c.Request().Context(), c.Param("id"))
	if errors.Is(err, metastore.ErrPartNotFound) {
		return c.NotFound(err)
	}
	if err != nil {
		return c.InternalError(err, "error getting part")
	}
	return c.JSON(http.StatusOK, GetPartResponse{Part: p, ColumnMarks: marks})
}
