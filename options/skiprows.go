package options

// SkipRows is one of SkipCount, SkipSet or SkipFunc. Line numbers are 0-based physical
// lines of the (decompressed) source.
type SkipRows interface {
	// Skip reports whether the given line is skipped
	Skip(line int) bool
}

type (
	// SkipCount skips the first n lines
	SkipCount int
	// SkipSet skips the listed lines
	SkipSet []int
	// SkipFunc skips lines the predicate returns true for
	SkipFunc func(line int) bool
)

func (n SkipCount) Skip(line int) bool {
	return line < int(n)
}

func (s SkipSet) Skip(line int) bool {
	for _, l := range s {
		if l == line {
			return true
		}
	}
	return false
}

func (f SkipFunc) Skip(line int) bool {
	return f(line)
}

// SkipRowCount returns the plain count when skip is nil or a SkipCount. ok is false for
// sets and predicates, which cannot be planned ahead of reading.
func SkipRowCount(skip SkipRows) (n int, ok bool) {
	switch s := skip.(type) {
	case nil:
		return 0, true
	case SkipCount:
		return int(s), true
	}
	return 0, false
}
