package table

import (
	"fmt"

	"github.com/danthegoodman1/splitread/options"
)

// RegroupDates applies date groups to items one group at a time: the members of a group are
// removed and the merged item is inserted at the front. The same routine serves column names
// and column layouts, so list and named groups behave identically.
func RegroupDates[T any](items []T, groups []options.DateGroup, nameOf func(T) string, merge func(g options.DateGroup, members []T) T) ([]T, error) {
	out := append([]T(nil), items...)
	for _, g := range groups {
		members := make([]T, 0, len(g.Columns))
		for _, name := range g.Columns {
			pos := -1
			for i, it := range out {
				if nameOf(it) == name {
					pos = i
					break
				}
			}
			if pos < 0 {
				return nil, fmt.Errorf("date group %q column %q: %w", g.GroupName(), name, options.ErrUnknownColumn)
			}
			members = append(members, out[pos])
			out = append(out[:pos], out[pos+1:]...)
		}
		out = append([]T{merge(g, members)}, out...)
	}
	return out, nil
}

// DateGroupNames returns the column names after date grouping
func DateGroupNames(columns []string, groups []options.DateGroup) ([]string, error) {
	return RegroupDates(columns, groups,
		func(s string) string { return s },
		func(g options.DateGroup, _ []string) string { return g.GroupName() },
	)
}
