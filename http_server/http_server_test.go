package http_server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/danthegoodman1/splitread/datastore"
	"github.com/danthegoodman1/splitread/metastore"
	"github.com/danthegoodman1/splitread/metrics"
	"github.com/danthegoodman1/splitread/part"
	"github.com/danthegoodman1/splitread/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type memMetaStore struct {
	mu    sync.Mutex
	parts map[string]part.Part
	marks map[string][]part.ColumnMark
}

func newMemMetaStore() *memMetaStore {
	return &memMetaStore{parts: map[string]part.Part{}, marks: map[string][]part.ColumnMark{}}
}

func (m *memMetaStore) CreatePart(_ context.Context, p part.Part, colMarks []part.ColumnMark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parts[p.ID] = p
	m.marks[p.ID] = colMarks
	return nil
}

func (m *memMetaStore) GetPart(_ context.Context, id string) (part.Part, []part.ColumnMark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parts[id]
	if !ok {
		return p, nil, fmt.Errorf("%w: %s", metastore.ErrPartNotFound, id)
	}
	return p, m.marks[id], nil
}

func (m *memMetaStore) ListParts(_ context.Context, filters ...metastore.FilterOption) ([]part.Part, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	parts := make([]part.Part, 0)
AllParts:
	for _, p := range m.parts {
		for _, f := range filters {
			if !metastore.PassFilterOption(p.ID, f) {
				continue AllParts
			}
		}
		parts = append(parts, p)
	}
	return parts, nil
}

func (m *memMetaStore) Shutdown(context.Context) error { return nil }

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func newTestServer(t *testing.T, exports bool) (*HTTPServer, *memMetaStore) {
	t.Helper()
	reg := prometheus.NewRegistry()
	reader := pipeline.NewReader(pipeline.Config{MaxPartitions: 4, MinColumnBlock: 32}, nil, metrics.NewMetrics(reg))
	if !exports {
		return NewHTTPServer(reader, nil, nil, reg), nil
	}
	dds, err := datastore.NewDiskDataStore(t.TempDir())
	require.NoError(t, err)
	meta := newMemMetaStore()
	return NewHTTPServer(reader, dds, meta, reg), meta
}

func do(t *testing.T, s *HTTPServer, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := do(t, s, http.MethodGet, "/hc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestReadFile(t *testing.T) {
	s, _ := newTestServer(t, false)
	path := writeCSV(t, "a,b,c\n1,x,2.5\n2,,3\n3,z,\n")

	rec := do(t, s, http.MethodPost, "/read", ReadRequest{Path: path, PreviewRows: -1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ReadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "partitioned", resp.Route)
	require.NotNil(t, resp.Table)
	require.Equal(t, []string{"a", "b", "c"}, resp.Table.Columns)
	require.Equal(t, []string{"int64", "object", "float64"}, resp.Table.Dtypes)
	require.Equal(t, 3, resp.Table.RowCount)
	require.Len(t, resp.Table.Rows, 3)
	// missing values come back as null
	require.Nil(t, resp.Table.Rows[1][1])
	require.Nil(t, resp.Table.Rows[2][2])

	rec = do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `splitread_reads_total{route="partitioned"} 1`)
}

func TestReadFileSequentialChunks(t *testing.T) {
	s, _ := newTestServer(t, false)
	path := writeCSV(t, "a\n1\n2\n3\n4\n5\n")

	rec := do(t, s, http.MethodPost, "/read", ReadRequest{Path: path, ChunkSize: 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ReadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "sequential", resp.Route)
	require.Equal(t, "chunksize", resp.Reason)
	require.Len(t, resp.Chunks, 3)
	require.Equal(t, 1, resp.Chunks[2].RowCount)
}

func TestReadFileErrors(t *testing.T) {
	s, _ := newTestServer(t, false)
	path := writeCSV(t, "a,b\n1,2\n")

	rec := do(t, s, http.MethodPost, "/read", ReadRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/read", ReadRequest{Path: path, UseCols: []string{"nope"}})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/read", ReadRequest{Path: path, Comment: "\u00a7"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/read", ReadRequest{Path: filepath.Join(t.TempDir(), "missing.csv")})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/export", ExportRequest{ReadRequest{Path: path}})
	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestExportFile(t *testing.T) {
	s, meta := newTestServer(t, true)
	path := writeCSV(t, "id,v\na,1\nb,\nc,3\n")

	rec := do(t, s, http.MethodPost, "/export", ExportRequest{ReadRequest{Path: path, IndexColumn: "id"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ExportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Parts, 1)
	p := resp.Parts[0]
	require.EqualValues(t, 3, p.RowCount)
	require.Greater(t, p.Bytes, int64(0))
	require.Equal(t, path, p.Source)

	rc, err := s.data.ReadFile(context.Background(), p.Key)
	require.NoError(t, err)
	rc.Close()

	rec = do(t, s, http.MethodGet, "/parts/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got GetPartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, []part.ColumnMark{
		{PartID: p.ID, ColumnName: "v", Dtype: "float64", RowCount: 3, NullCount: 1},
	}, got.ColumnMarks)

	rec = do(t, s, http.MethodGet, "/parts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListPartsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Parts, 1)

	rec = do(t, s, http.MethodGet, "/parts?after="+p.ID, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Empty(t, list.Parts)

	rec = do(t, s, http.MethodGet, "/parts/part_missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, meta.parts, 1)
}
