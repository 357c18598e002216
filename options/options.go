package options

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/danthegoodman1/splitread/source"
	"github.com/go-playground/validator/v10"
)

type Format string

const (
	FormatCSV    Format = "csv"
	FormatNDJSON Format = "ndjson"
)

type (
	// ReadOptions is the full option set for a read. The pipeline forwards it unchanged to
	// the sequential fallback when the partitioned path cannot honour it.
	ReadOptions struct {
		// Format defaults to FormatCSV
		Format Format `validate:"omitempty,oneof=csv ndjson"`
		// MaxPartitions overrides the configured partition count when > 0
		MaxPartitions int `validate:"min=0"`
		// Delimiter defaults to ','
		Delimiter rune
		// Comment marks lines to ignore, 0 disables
		Comment rune
		Header  Header
		// Names overrides the column names, and disables header inference
		Names []string `validate:"omitempty,unique"`
		// IndexColumn is resolved against the selected columns
		IndexColumn *ColumnRef
		UseCols     *ColumnSelector
		// Columns is the expected column set of a record (NDJSON) read
		Columns     []string `validate:"omitempty,unique"`
		Compression source.Compression
		Encoding    string
		SkipRows    SkipRows
		ParseDates  *ParseDates
		SkipFooter  int  `validate:"min=0"`
		Squeeze     bool
		NRows       *int `validate:"omitempty,min=0"`
		// ChunkSize > 0 requests an iterator of tables of this many rows
		ChunkSize int `validate:"min=0"`
		// NAValues replaces the default missing value tokens when non-nil
		NAValues []string
	}

	ColumnRef struct {
		Name     string
		Position int
	}

	// ColumnSelector selects columns by name or by position, never both
	ColumnSelector struct {
		Names     []string `validate:"omitempty,unique"`
		Positions []int    `validate:"omitempty,unique,dive,min=0"`
	}

	// DateGroup combines several columns into one datetime column. An empty Name joins the
	// source names with "_".
	DateGroup struct {
		Name    string
		Columns []string `validate:"min=1"`
	}

	ParseDates struct {
		Columns []string
		Groups  []DateGroup `validate:"dive"`
	}
)

var (
	ErrInvalidOption  = errors.New("invalid read option")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrColumnOutRange = errors.New("column position out of range")

	validate = validator.New()
)

func ByName(name string) *ColumnRef {
	return &ColumnRef{Name: name}
}

func ByPosition(pos int) *ColumnRef {
	return &ColumnRef{Position: pos}
}

func (c ColumnRef) String() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprint(c.Position)
}

func (s *ColumnSelector) IsSymbolic() bool {
	return s != nil && len(s.Names) > 0
}

func (g DateGroup) GroupName() string {
	if g.Name != "" {
		return g.Name
	}
	return strings.Join(g.Columns, "_")
}

// IsDateColumn reports whether name was listed as a plain date column
func (p *ParseDates) IsDateColumn(name string) bool {
	if p == nil {
		return false
	}
	for _, c := range p.Columns {
		if c == name {
			return true
		}
	}
	return false
}

func (o *ReadOptions) HasDateGroups() bool {
	return o.ParseDates != nil && len(o.ParseDates.Groups) > 0
}

// FormatOrDefault returns the configured format, defaulting to FormatCSV
func (o *ReadOptions) FormatOrDefault() Format {
	if o.Format == "" {
		return FormatCSV
	}
	return o.Format
}

// Comma returns the configured delimiter, defaulting to ','
func (o *ReadOptions) Comma() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// Clone returns a copy that can be modified without touching the caller's options
func (o *ReadOptions) Clone() *ReadOptions {
	c := *o
	return &c
}

// Validate checks the option set, returning an error wrapping ErrInvalidOption that names
// the offending option.
func (o *ReadOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("option %s failed %q: %w", verrs[0].Namespace(), verrs[0].Tag(), ErrInvalidOption)
		}
		return fmt.Errorf("error in validate.Struct: %w", err)
	}
	if o.UseCols != nil {
		if err := validate.Struct(o.UseCols); err != nil {
			return fmt.Errorf("option UseCols: %s: %w", err.Error(), ErrInvalidOption)
		}
		if len(o.UseCols.Names) > 0 && len(o.UseCols.Positions) > 0 {
			return fmt.Errorf("option UseCols mixes names and positions: %w", ErrInvalidOption)
		}
	}
	if o.ParseDates != nil {
		if err := validate.Struct(o.ParseDates); err != nil {
			return fmt.Errorf("option ParseDates: %s: %w", err.Error(), ErrInvalidOption)
		}
	}
	if o.Header.mode == headerRow && o.Header.row < 0 {
		return fmt.Errorf("option Header row %d is negative: %w", o.Header.row, ErrInvalidOption)
	}
	if n, ok := o.SkipRows.(SkipCount); ok && n < 0 {
		return fmt.Errorf("option SkipRows count %d is negative: %w", n, ErrInvalidOption)
	}
	switch o.Comma() {
	case '\n', '\r', '"':
		return fmt.Errorf("option Delimiter %q is not allowed: %w", o.Comma(), ErrInvalidOption)
	}
	// comment lines are recognized by their first byte when partitioning
	if o.Comment >= utf8.RuneSelf {
		return fmt.Errorf("option Comment %q is not a single byte character: %w", o.Comment, ErrInvalidOption)
	}
	if o.Comment != 0 && o.Comment == o.Comma() {
		return fmt.Errorf("option Comment equals Delimiter: %w", ErrInvalidOption)
	}
	if o.IndexColumn != nil && o.IndexColumn.Name == "" && o.IndexColumn.Position < 0 {
		return fmt.Errorf("option IndexColumn position is negative: %w", ErrInvalidOption)
	}
	if o.FormatOrDefault() == FormatNDJSON && (o.UseCols != nil || o.IndexColumn != nil || o.HasDateGroups()) {
		return fmt.Errorf("options UseCols, IndexColumn and date groups are not supported for %s: %w", FormatNDJSON, ErrInvalidOption)
	}
	if o.SkipFooter > 0 && o.ChunkSize > 0 {
		return fmt.Errorf("option SkipFooter is not supported with ChunkSize: %w", ErrInvalidOption)
	}
	return nil
}
