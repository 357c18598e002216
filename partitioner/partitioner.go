package partitioner

import (
	"context"
	"fmt"

	"github.com/danthegoodman1/splitread/source"
	"github.com/rs/zerolog"
)

type (
	// ByteRange is the half open range [Start, End) of the decompressed stream
	ByteRange struct {
		Start int64
		End   int64
	}

	PartitionPlan struct {
		// Ranges are contiguous, row aligned and in offset order
		Ranges      []ByteRange
		ChunkTarget int64
		NumSplits   int
		// ColumnWidths is shared by every chunk and sums to the output column count
		ColumnWidths []int
	}

	Partitioner struct {
		MaxPartitions  int
		MinColumnBlock int
		// Quote is the quote byte, 0 when the format has no quoting
		Quote   byte
		Comment byte
	}
)

func (r ByteRange) Len() int64 {
	return r.End - r.Start
}

// ChunkTargetSize is the byte length each range aims for
func ChunkTargetSize(remaining int64, maxPartitions int) int64 {
	if maxPartitions < 1 {
		maxPartitions = 1
	}
	target := remaining / int64(maxPartitions)
	if target < 1 {
		return 1
	}
	return target
}

// ComputeColumnWidths splits n columns into at most splits groups of at least minBlock
// columns. Every group but the last is a full stride.
func ComputeColumnWidths(n, splits, minBlock int) []int {
	if n <= 0 {
		return nil
	}
	if splits < 1 {
		splits = 1
	}
	stride := (n + splits - 1) / splits
	if stride < minBlock {
		stride = minBlock
	}
	if stride >= n {
		return []int{n}
	}
	widths := make([]int, 0, splits)
	for off := 0; off < n; off += stride {
		w := stride
		if n-off < w {
			w = n - off
		}
		widths = append(widths, w)
	}
	return widths
}

// Plan cuts the data after dataStart into row aligned ranges by walking the stream once
func (p *Partitioner) Plan(ctx context.Context, fd *source.FileDescriptor, dataStart int64, numColumns int) (*PartitionPlan, error) {
	splits := numColumns
	if p.MaxPartitions < splits {
		splits = p.MaxPartitions
	}
	plan := &PartitionPlan{
		ChunkTarget:  ChunkTargetSize(fd.Size-dataStart, p.MaxPartitions),
		ColumnWidths: ComputeColumnWidths(numColumns, splits, p.MinColumnBlock),
	}
	plan.NumSplits = len(plan.ColumnWidths)
	if dataStart >= fd.Size {
		return plan, nil
	}

	r, err := fd.OpenRange(dataStart, fd.Size)
	if err != nil {
		return nil, fmt.Errorf("error in OpenRange: %w", err)
	}
	defer r.Close()

	scanner := NewBoundaryScanner(r, dataStart, p.Quote, p.Comment)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := scanner.Pos()
		end, eof, err := scanner.NextBoundary(start + plan.ChunkTarget)
		if err != nil {
			return nil, fmt.Errorf("error in NextBoundary: %w", err)
		}
		if end > start {
			plan.Ranges = append(plan.Ranges, ByteRange{Start: start, End: end})
		}
		if eof || end >= fd.Size {
			break
		}
	}

	zerolog.Ctx(ctx).Debug().Str("path", fd.Path).Int("ranges", len(plan.Ranges)).Int64("chunkTarget", plan.ChunkTarget).Ints("columnWidths", plan.ColumnWidths).Msg("planned partitions")
	return plan, nil
}
