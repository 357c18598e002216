package table

// TrimFooter drops the last n rows across results, in chunk order. Chunks left with no rows
// are removed, and the chunk that is cut into has its observations recomputed so footer rows
// never reach dtype reconciliation. results is not modified.
func TrimFooter(results []*ChunkResult, n int, inf Inference) []*ChunkResult {
	if n <= 0 {
		return results
	}
	out := make([]*ChunkResult, len(results))
	copy(out, results)
	for n > 0 && len(out) > 0 {
		last := out[len(out)-1]
		if last.RowCount <= n {
			n -= last.RowCount
			out = out[:len(out)-1]
			continue
		}
		cut := last.Slice(0, last.RowCount-n)
		inf.Observe(cut)
		out[len(out)-1] = cut
		n = 0
	}
	return out
}
