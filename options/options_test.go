package options

import (
	"testing"

	"github.com/danthegoodman1/splitread/utils"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, (&ReadOptions{}).Validate())
	require.NoError(t, (&ReadOptions{MaxPartitions: 8, SkipRows: SkipCount(2), Header: HeaderRow(1)}).Validate())
	require.NoError(t, (&ReadOptions{Comment: '#', Delimiter: '\u00a6'}).Validate())

	bad := []*ReadOptions{
		{MaxPartitions: -1},
		{SkipFooter: -2},
		{NRows: utils.Ptr(-1)},
		{Names: []string{"a", "a"}},
		{Header: HeaderRow(-1)},
		{SkipRows: SkipCount(-1)},
		{Delimiter: '"'},
		{Comment: ';', Delimiter: ';'},
		{Comment: '\u00a7'},
		{UseCols: &ColumnSelector{Names: []string{"a"}, Positions: []int{1}}},
		{UseCols: &ColumnSelector{Positions: []int{-1}}},
		{ParseDates: &ParseDates{Groups: []DateGroup{{Name: "x"}}}},
		{SkipFooter: 1, ChunkSize: 10},
		{Format: "xml"},
		{Format: FormatNDJSON, IndexColumn: ByName("a")},
	}
	for i, o := range bad {
		require.ErrorIs(t, o.Validate(), ErrInvalidOption, "case %d", i)
	}
}

func TestSkipRowCount(t *testing.T) {
	n, ok := SkipRowCount(nil)
	require.True(t, ok)
	require.Equal(t, 0, n)

	n, ok = SkipRowCount(SkipCount(3))
	require.True(t, ok)
	require.Equal(t, 3, n)

	_, ok = SkipRowCount(SkipSet{1, 2})
	require.False(t, ok)
	_, ok = SkipRowCount(SkipFunc(func(int) bool { return false }))
	require.False(t, ok)
}

func TestSkip(t *testing.T) {
	require.True(t, SkipCount(2).Skip(1))
	require.False(t, SkipCount(2).Skip(2))
	require.True(t, SkipSet{0, 4}.Skip(4))
	require.True(t, SkipFunc(func(l int) bool { return l%2 == 1 }).Skip(3))
}

func TestGroupName(t *testing.T) {
	require.Equal(t, "year_month", DateGroup{Columns: []string{"year", "month"}}.GroupName())
	require.Equal(t, "when", DateGroup{Name: "when", Columns: []string{"year"}}.GroupName())
}
