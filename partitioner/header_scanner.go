package partitioner

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/danthegoodman1/splitread/options"
)

type (
	// HeaderScanner consumes the skipped lines and the header from the start of a stream
	HeaderScanner struct {
		Header   options.Header
		Names    []string
		SkipRows options.SkipRows
	}

	ScanResult struct {
		// Lines is the number of physical lines consumed
		Lines int
		// Bytes is the offset of the first data byte
		Bytes int64
		// Header is the header record without its terminator, nil when there is none
		Header []byte
	}
)

var ErrHeaderNotFound = errors.New("header row not found")

// headerLines is how many effective lines have to be consumed, the last being the header
func (s *HeaderScanner) headerLines() int {
	if s.Header.IsNone() || (s.Header.IsInfer() && len(s.Names) > 0) {
		return 0
	}
	return s.Header.Row() + 1
}

// Scan reads from rr until the header has been consumed. rr is left positioned at the first
// data record so callers may keep reading from it.
func (s *HeaderScanner) Scan(rr *RecordReader) (*ScanResult, error) {
	res := &ScanResult{}
	count, isCount := options.SkipRowCount(s.SkipRows)
	if isCount {
		for rr.Line < count {
			if _, _, err := rr.Next(); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("error skipping rows: %w", err)
			}
		}
	}

	want := s.headerLines()
	seen := 0
	for seen < want {
		rec, line, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("stream ended after %d of %d header lines: %w", seen, want, ErrHeaderNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("error in RecordReader.Next: %w", err)
		}
		if !rr.IsEffective(rec) || (!isCount && s.SkipRows.Skip(line)) {
			continue
		}
		seen++
		if seen == want {
			res.Header = bytes.TrimRight(rec, "\r\n")
		}
	}
	res.Lines = rr.Line
	res.Bytes = rr.Offset
	return res, nil
}
