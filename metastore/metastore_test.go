package metastore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPassFilterOption(t *testing.T) {
	cases := []struct {
		val    string
		filter FilterOption
		want   bool
	}{
		{"b", FilterOption{GT, "a"}, true},
		{"a", FilterOption{GT, "a"}, false},
		{"a", FilterOption{GTE, "a"}, true},
		{"a", FilterOption{LT, "b"}, true},
		{"b", FilterOption{LTE, "a"}, false},
		{"b", FilterOption{IN, []string{"a", "b"}}, true},
		{"c", FilterOption{IN, []string{"a", "b"}}, false},
		{"a", FilterOption{"~", "a"}, false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, PassFilterOption(c.val, c.filter), "%s %s %v", c.val, c.filter.Operator, c.filter.Val)
	}
}

func TestFilterClause(t *testing.T) {
	where, args, err := filterClause(nil)
	require.NoError(t, err)
	require.Equal(t, "WHERE alive = true", where)
	require.Empty(t, args)

	where, args, err = filterClause([]FilterOption{{GTE, "p_1"}, {IN, []string{"p_1", "p_2"}}})
	require.NoError(t, err)
	require.Equal(t, "WHERE alive = true AND id >= $1 AND id = ANY($2)", where)
	require.Equal(t, []any{"p_1", []string{"p_1", "p_2"}}, args)

	_, _, err = filterClause([]FilterOption{{GT, 1}})
	require.Error(t, err)
	_, _, err = filterClause([]FilterOption{{"~", "a"}})
	require.Error(t, err)
}

var _ MetaStore = (*RedisMetaStore)(nil)
var _ MetaStore = (*CRDBMetaStore)(nil)
