package options

type headerMode uint8

const (
	headerInfer headerMode = iota
	headerNone
	headerRow
)

// Header selects where column names come from. The zero value infers them from the first
// line unless Names is set.
type Header struct {
	mode headerMode
	row  int
}

var (
	HeaderInfer = Header{mode: headerInfer}
	HeaderNone  = Header{mode: headerNone}
)

// HeaderRow uses the n-th effective line (0-based) as the header, discarding lines before it
func HeaderRow(n int) Header {
	return Header{mode: headerRow, row: n}
}

func (h Header) IsNone() bool {
	return h.mode == headerNone
}

func (h Header) IsInfer() bool {
	return h.mode == headerInfer
}

// Row is the header line index, only meaningful when the header is not None
func (h Header) Row() int {
	if h.mode == headerRow {
		return h.row
	}
	return 0
}

func (h Header) String() string {
	switch h.mode {
	case headerNone:
		return "none"
	case headerRow:
		return "row"
	default:
		return "infer"
	}
}
