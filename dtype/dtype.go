package dtype

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type (
	Kind uint8

	// Dtype is either a per-chunk observation (Kind may be Empty) or, after Resolve, the
	// final type of a column.
	Dtype struct {
		Kind Kind
		// HasNA is set when at least one missing value was observed
		HasNA bool
	}
)

const (
	// Empty means only missing values have been seen so far
	Empty Kind = iota
	Bool
	Int64
	Float64
	Datetime
	Object
)

var (
	ObjectType   = Dtype{Kind: Object}
	Float64Type  = Dtype{Kind: Float64}
	Int64Type    = Dtype{Kind: Int64}
	BoolType     = Dtype{Kind: Bool}
	DatetimeType = Dtype{Kind: Datetime}

	// DefaultNAValues are the tokens treated as missing by default
	DefaultNAValues = []string{
		"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan", "1.#IND", "1.#QNAN",
		"<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a", "nan", "null",
	}

	// DatetimeLayouts are tried in order when parsing date columns
	DatetimeLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02",
		"01/02/2006 15:04:05",
		"01/02/2006",
	}
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Bool:
		return "bool"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case Datetime:
		return "datetime64[ns]"
	default:
		return "object"
	}
}

func (d Dtype) String() string {
	return d.Resolve().Kind.String()
}

// Equal compares resolved dtypes, ignoring whether missing values were seen
func (d Dtype) Equal(o Dtype) bool {
	return d.Resolve().Kind == o.Resolve().Kind
}

// Promote is the join of two observations. It is associative and commutative, so the
// result never depends on the order chunks are combined in.
func Promote(a, b Dtype) Dtype {
	out := Dtype{HasNA: a.HasNA || b.HasNA}
	switch {
	case a.Kind == b.Kind:
		out.Kind = a.Kind
	case a.Kind == Empty:
		out.Kind = b.Kind
	case b.Kind == Empty:
		out.Kind = a.Kind
	case (a.Kind == Int64 && b.Kind == Float64) || (a.Kind == Float64 && b.Kind == Int64):
		out.Kind = Float64
	default:
		out.Kind = Object
	}
	return out
}

// Join folds Promote over ds
func Join(ds ...Dtype) Dtype {
	out := Dtype{Kind: Empty}
	for _, d := range ds {
		out = Promote(out, d)
	}
	return out
}

// Resolve maps an observation to the type a column actually gets. Integers and all-missing
// columns become float64 when values are missing, booleans become object.
func (d Dtype) Resolve() Dtype {
	switch d.Kind {
	case Empty:
		return Dtype{Kind: Float64, HasNA: true}
	case Int64:
		if d.HasNA {
			return Dtype{Kind: Float64, HasNA: true}
		}
	case Bool:
		if d.HasNA {
			return Dtype{Kind: Object, HasNA: true}
		}
	}
	return d
}

// Parse maps a type name such as "int64" back to a resolved Dtype
func Parse(name string) (Dtype, error) {
	for _, k := range []Kind{Bool, Int64, Float64, Datetime, Object} {
		if k.String() == name {
			return Dtype{Kind: k}, nil
		}
	}
	return Dtype{}, fmt.Errorf("unknown dtype %q", name)
}

// NASet is a lookup of tokens that count as missing
type NASet map[string]struct{}

func NewNASet(values []string) NASet {
	if values == nil {
		values = DefaultNAValues
	}
	s := make(NASet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s NASet) Contains(text string) bool {
	_, ok := s[text]
	return ok
}

func parseBool(text string) (bool, bool) {
	switch text {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	}
	return false, false
}

func ParseDatetime(text string) (time.Time, bool) {
	for _, layout := range DatetimeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// numericText trims the spaces around a number, as written in "1, 2" style files
func numericText(text string) string {
	return strings.Trim(text, " ")
}

func parseInt(text string) (int64, error) {
	return strconv.ParseInt(numericText(text), 10, 64)
}

// parseFloat accepts decimal floats only, never Go hex float literals
func parseFloat(text string) (float64, error) {
	t := numericText(text)
	digits := strings.TrimLeft(t, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return 0, fmt.Errorf("hex float %q: %w", text, strconv.ErrSyntax)
	}
	return strconv.ParseFloat(t, 64)
}

// Classify observes a single cell. quoted marks values that were explicitly strings in the
// source (JSON strings) and are never inferred as numbers. date marks columns requested as
// dates.
func Classify(text string, null, quoted, date bool, na NASet) Dtype {
	if null || (!quoted && na.Contains(text)) {
		return Dtype{Kind: Empty, HasNA: true}
	}
	if date {
		if _, ok := ParseDatetime(text); ok {
			return DatetimeType
		}
		return ObjectType
	}
	if quoted {
		return ObjectType
	}
	if _, ok := parseBool(text); ok {
		return BoolType
	}
	if _, err := parseInt(text); err == nil {
		return Int64Type
	}
	if _, err := parseFloat(text); err == nil {
		return Float64Type
	}
	return ObjectType
}

// Convert materializes a cell as the resolved dtype. Missing values become NaN for float64
// and nil otherwise.
func Convert(text string, null, quoted bool, target Dtype, na NASet) (any, error) {
	missing := null || (!quoted && na.Contains(text))
	switch target.Resolve().Kind {
	case Float64:
		if missing {
			return math.NaN(), nil
		}
		f, err := parseFloat(text)
		if err != nil {
			return nil, fmt.Errorf("error converting %q to float64: %w", text, err)
		}
		return f, nil
	case Int64:
		if missing {
			return nil, fmt.Errorf("missing value in int64 column")
		}
		i, err := parseInt(text)
		if err != nil {
			return nil, fmt.Errorf("error converting %q to int64: %w", text, err)
		}
		return i, nil
	case Bool:
		if missing {
			return nil, fmt.Errorf("missing value in bool column")
		}
		b, ok := parseBool(text)
		if !ok {
			return nil, fmt.Errorf("error converting %q to bool", text)
		}
		return b, nil
	case Datetime:
		if missing {
			return nil, nil
		}
		t, ok := ParseDatetime(text)
		if !ok {
			return nil, fmt.Errorf("error converting %q to datetime", text)
		}
		return t, nil
	default:
		if missing {
			return nil, nil
		}
		return text, nil
	}
}
