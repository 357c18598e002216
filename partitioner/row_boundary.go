package partitioner

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// RecordReader reads logical records: physical lines joined while a quote is open. Comment
// lines never open a quote.
type RecordReader struct {
	br      *bufio.Reader
	quote   byte
	comment byte

	// Line is the physical line number of the next record
	Line int
	// Offset is the byte offset of the next record
	Offset int64
}

func NewRecordReader(r io.Reader, quote, comment byte) *RecordReader {
	return &RecordReader{
		br:      bufio.NewReaderSize(r, 64*1024),
		quote:   quote,
		comment: comment,
	}
}

// Next returns the next record including its terminator and the physical line it starts on.
// The last record may have no terminator. io.EOF is returned once nothing is left.
func (rr *RecordReader) Next() (rec []byte, line int, err error) {
	line = rr.Line
	inQuotes := false
	for {
		part, err := rr.br.ReadBytes('\n')
		if len(part) > 0 {
			isComment := len(rec) == 0 && rr.comment != 0 && part[0] == rr.comment
			if rr.quote != 0 && !isComment && bytes.Count(part, []byte{rr.quote})%2 == 1 {
				inQuotes = !inQuotes
			}
			rec = append(rec, part...)
			if part[len(part)-1] == '\n' {
				rr.Line++
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(rec) > 0 {
				rr.Offset += int64(len(rec))
				return rec, line, nil
			}
			return nil, line, err
		}
		if !inQuotes {
			rr.Offset += int64(len(rec))
			return rec, line, nil
		}
	}
}

// IsEffective reports whether a record counts as a row: not blank and not a comment
func (rr *RecordReader) IsEffective(rec []byte) bool {
	trimmed := bytes.TrimRight(rec, "\r\n")
	if len(trimmed) == 0 {
		return false
	}
	return rr.comment == 0 || trimmed[0] != rr.comment
}

// BoundaryScanner walks a stream byte by byte to find row terminators outside quotes
type BoundaryScanner struct {
	br      *bufio.Reader
	quote   byte
	comment byte

	pos         int64
	inQuotes    bool
	inComment   bool
	atLineStart bool
}

// NewBoundaryScanner scans r, whose first byte sits at offset start of the stream. start
// must be the beginning of a row. A zero quote disables quote tracking.
func NewBoundaryScanner(r io.Reader, start int64, quote, comment byte) *BoundaryScanner {
	return &BoundaryScanner{
		br:          bufio.NewReaderSize(r, 256*1024),
		quote:       quote,
		comment:     comment,
		pos:         start,
		atLineStart: true,
	}
}

// Pos is the offset of the next unread byte
func (s *BoundaryScanner) Pos() int64 {
	return s.pos
}

// NextBoundary returns the offset just past the first row terminator whose end is at or
// after min. At EOF it returns the stream length and eof is true.
func (s *BoundaryScanner) NextBoundary(min int64) (end int64, eof bool, err error) {
	for {
		b, err := s.br.ReadByte()
		if errors.Is(err, io.EOF) {
			return s.pos, true, nil
		}
		if err != nil {
			return s.pos, false, fmt.Errorf("error in ReadByte: %w", err)
		}
		s.pos++

		switch {
		case s.inComment:
			if b == '\n' {
				s.inComment = false
			}
		case s.atLineStart && !s.inQuotes && s.comment != 0 && b == s.comment:
			s.inComment = true
		case s.quote != 0 && b == s.quote:
			s.inQuotes = !s.inQuotes
		}
		s.atLineStart = b == '\n' && !s.inQuotes

		if b == '\n' && !s.inQuotes && !s.inComment && s.pos >= min {
			return s.pos, false, nil
		}
	}
}
