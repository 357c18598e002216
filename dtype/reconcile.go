package dtype

import (
	"errors"
	"fmt"
)

var ErrDtypeVectorLength = errors.New("chunk dtype vectors have different lengths")

// Reconcile merges every chunk's per-column observations into one resolved dtype per
// column.
func Reconcile(perChunk [][]Dtype) ([]Dtype, error) {
	if len(perChunk) == 0 {
		return nil, nil
	}
	width := len(perChunk[0])
	joined := make([]Dtype, width)
	for chunk, dts := range perChunk {
		if len(dts) != width {
			return nil, fmt.Errorf("chunk %d has %d dtypes, expected %d: %w", chunk, len(dts), width, ErrDtypeVectorLength)
		}
		for col, d := range dts {
			joined[col] = Promote(joined[col], d)
		}
	}
	out := make([]Dtype, width)
	for i, d := range joined {
		out[i] = d.Resolve()
	}
	return out, nil
}
