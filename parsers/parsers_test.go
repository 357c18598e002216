package parsers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danthegoodman1/splitread/dtype"
	"github.com/danthegoodman1/splitread/options"
	"github.com/danthegoodman1/splitread/partitioner"
	"github.com/danthegoodman1/splitread/source"
	"github.com/danthegoodman1/splitread/table"
	"github.com/stretchr/testify/require"
)

func probeCSV(t *testing.T, content string, opts *options.ReadOptions) (*SchemaProbe, error) {
	t.Helper()
	return (&Delimited{}).ProbeSchema(context.Background(), strings.NewReader(content), opts)
}

func TestProbeMangledNames(t *testing.T) {
	probe, err := probeCSV(t, "a,a,,b,a\n1,2,3,4,5\n", &options.ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "a.1", "Unnamed: 2", "b", "a.2"}, probe.Columns)
	require.Equal(t, probe.Columns, probe.FileColumns)
	require.False(t, probe.HasIndex())
	for _, d := range probe.Dtypes {
		require.Equal(t, dtype.ObjectType, d)
	}
}

func TestProbeHeaderNone(t *testing.T) {
	probe, err := probeCSV(t, "# c\n1,2,3\n", &options.ReadOptions{Header: options.HeaderNone, Comment: '#'})
	require.NoError(t, err)
	require.Equal(t, []string{"0", "1", "2"}, probe.Columns)
}

func TestProbeUseColsAndIndex(t *testing.T) {
	content := "id,a,b,c\n1,2,3,4\n"
	probe, err := probeCSV(t, content, &options.ReadOptions{
		UseCols:     &options.ColumnSelector{Names: []string{"c", "id", "a"}},
		IndexColumn: options.ByName("id"),
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 3}, probe.UseCols)
	require.Equal(t, 0, probe.IndexPosition)
	require.Equal(t, "id", probe.IndexName)
	require.Equal(t, []string{"a", "c"}, probe.Columns)

	probe, err = probeCSV(t, content, &options.ReadOptions{
		UseCols:     &options.ColumnSelector{Positions: []int{2, 3}},
		IndexColumn: options.ByPosition(1),
	})
	require.NoError(t, err)
	require.Equal(t, "c", probe.IndexName)
	require.Equal(t, []string{"b"}, probe.Columns)

	_, err = probeCSV(t, content, &options.ReadOptions{UseCols: &options.ColumnSelector{Names: []string{"nope"}}})
	require.ErrorIs(t, err, options.ErrUnknownColumn)
	_, err = probeCSV(t, content, &options.ReadOptions{UseCols: &options.ColumnSelector{Positions: []int{9}}})
	require.ErrorIs(t, err, options.ErrColumnOutRange)
	_, err = probeCSV(t, content, &options.ReadOptions{IndexColumn: options.ByName("zzz")})
	require.ErrorIs(t, err, options.ErrUnknownColumn)
}

func TestProbeDateGroups(t *testing.T) {
	probe, err := probeCSV(t, "x,day,hour,y\n", &options.ReadOptions{
		ParseDates: &options.ParseDates{
			Columns: []string{"y"},
			Groups:  []options.DateGroup{{Columns: []string{"day", "hour"}}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"day_hour", "x", "y"}, probe.Columns)
	require.Equal(t, []int{1, 2}, probe.Layout[0].Positions)
	require.Equal(t, []bool{true, false, true}, probe.Inference.Dates)

	_, err = probeCSV(t, "x\n", &options.ReadOptions{ParseDates: &options.ParseDates{Columns: []string{"q"}}})
	require.ErrorIs(t, err, options.ErrUnknownColumn)
}

func parseCSV(t *testing.T, header, data string, opts *options.ReadOptions, widths []int) (*table.ChunkResult, error) {
	t.Helper()
	p := &Delimited{}
	probe, err := p.ProbeSchema(context.Background(), strings.NewReader(header), opts)
	require.NoError(t, err)
	task := &ChunkTask{Index: 3, Probe: probe, Options: opts, ColumnWidths: widths}
	return p.Parse(context.Background(), strings.NewReader(data), task, -1)
}

func TestParseDelimitedChunk(t *testing.T) {
	res, err := parseCSV(t, "k,a,b\n", "x,1,2.5\ny,2\n\nz,3,\"q\nr\"\n", &options.ReadOptions{IndexColumn: options.ByName("k")}, []int{1, 1})
	require.NoError(t, err)
	require.Equal(t, 3, res.Index)
	require.Equal(t, 3, res.RowCount)
	require.Len(t, res.Blocks, 2)
	require.Equal(t, []table.Cell{{Text: "x"}, {Text: "y"}, {Text: "z"}}, res.IndexFragment)
	require.Equal(t, []table.Cell{{Text: "2.5"}, {Null: true}, {Text: "q\nr"}}, res.Blocks[1].Columns[0])
	require.Equal(t, dtype.Dtype{Kind: dtype.Int64}, res.Dtypes[0])
	require.Equal(t, dtype.Dtype{Kind: dtype.Object, HasNA: true}, res.Dtypes[1])
}

func TestParseMalformedRow(t *testing.T) {
	_, err := parseCSV(t, "a,b\n", "1,2\n1,2,3\n", &options.ReadOptions{}, []int{2})
	require.ErrorIs(t, err, ErrMalformedRow)
	require.ErrorIs(t, err, ErrChunkParse)

	_, err = parseCSV(t, "a,b\n", "1,\"unterminated\n", &options.ReadOptions{}, []int{2})
	require.ErrorIs(t, err, ErrChunkParse)
}

func TestParseDateGroup(t *testing.T) {
	opts := &options.ReadOptions{ParseDates: &options.ParseDates{Groups: []options.DateGroup{{Name: "at", Columns: []string{"d", "t"}}}}}
	res, err := parseCSV(t, "d,t,v\n", "2021-01-02,03:04:05,1\n", opts, []int{2})
	require.NoError(t, err)
	require.Equal(t, "2021-01-02 03:04:05", res.Blocks[0].Columns[0][0].Text)
	require.Equal(t, dtype.Datetime, res.Dtypes[0].Kind)
	v, err := dtype.Convert(res.Blocks[0].Columns[0][0].Text, false, false, res.Dtypes[0], nil)
	require.NoError(t, err)
	require.Equal(t, time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC), v)
}

func TestRecordsSchema(t *testing.T) {
	p := &Records{}
	opts := &options.ReadOptions{Format: options.FormatNDJSON}
	probe, err := p.ProbeSchema(context.Background(), strings.NewReader("{\"b\":1,\"a\":\"x\"}\n"), opts)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, probe.Columns)

	task := &ChunkTask{Probe: probe, Options: opts, ColumnWidths: []int{2}}
	res, err := p.Parse(context.Background(), strings.NewReader("{\"b\":1,\"a\":\"2\"}\n{\"b\":null,\"a\":\"y\"}\n"), task, -1)
	require.NoError(t, err)
	require.Equal(t, 2, res.RowCount)
	require.Equal(t, []string{"b", "a"}, res.Columns)
	// quoted strings are never numbers
	require.Equal(t, dtype.Object, res.Dtypes[1].Kind)
	require.Equal(t, dtype.Dtype{Kind: dtype.Int64, HasNA: true}, res.Dtypes[0])

	_, err = p.Parse(context.Background(), strings.NewReader("{\"b\":1,\"c\":2}\n"), task, -1)
	require.ErrorIs(t, err, ErrSchemaMismatch)
	_, err = p.Parse(context.Background(), strings.NewReader("{\"a\":\"x\",\"b\":1}\n"), task, -1)
	require.ErrorIs(t, err, ErrSchemaMismatch)
	_, err = p.Parse(context.Background(), strings.NewReader("[1,2]\n"), task, -1)
	require.ErrorIs(t, err, ErrNotObject)
}

func TestRecordsNestedKeysStayTogether(t *testing.T) {
	keys, values, err := flattenRecord([]byte(`{"z":1,"obj":{"y":2,"x":3},"a":4}`))
	require.NoError(t, err)
	require.Len(t, keys, 4)
	require.Equal(t, "z", keys[0])
	require.Equal(t, "a", keys[3])
	require.Len(t, values, 4)
}

func TestParseChunkByteRangeWithEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.csv")
	// "caf\xe9" is latin1 for café
	if err := os.WriteFile(path, []byte("name,n\ncaf\xe9,1\nb,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fd, err := source.Describe(path, source.CompressionNone)
	require.NoError(t, err)
	opts := &options.ReadOptions{Encoding: "latin1"}
	p := &Delimited{}
	probe, err := p.ProbeSchema(context.Background(), strings.NewReader("name,n\n"), opts)
	require.NoError(t, err)

	task := &ChunkTask{Descriptor: fd, Range: partitioner.ByteRange{Start: 7, End: 14}, Probe: probe, Options: opts, ColumnWidths: []int{2}}
	res, err := ParseChunk(context.Background(), p, task)
	require.NoError(t, err)
	require.Equal(t, 1, res.RowCount)
	require.Equal(t, "café", res.Blocks[0].Columns[0][0].Text)
	require.Equal(t, int64(7), res.Bytes)
}

func TestForFormat(t *testing.T) {
	p, err := ForFormat(options.FormatNDJSON)
	require.NoError(t, err)
	require.Equal(t, byte(0), p.Quote())
	_, err = ForFormat("xml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}
