package metastore

import (
	"context"
	"errors"

	"github.com/danthegoodman1/splitread/gologger"
	"github.com/danthegoodman1/splitread/part"
	"github.com/danthegoodman1/splitread/utils"
)

var (
	logger = gologger.NewLogger()

	ErrPartNotFound = errors.New("part not found")
)

type (
	// MetaStore records exported parts and their column marks
	MetaStore interface {
		// CreatePart creates the part and its column marks atomically
		CreatePart(ctx context.Context, p part.Part, colMarks []part.ColumnMark) error
		GetPart(ctx context.Context, id string) (part.Part, []part.ColumnMark, error)
		// ListParts lists alive parts whose IDs pass every filter
		ListParts(ctx context.Context, filters ...FilterOption) ([]part.Part, error)

		Shutdown(ctx context.Context) error
	}

	Operator string

	// FilterOption compares a part ID against Val. Part IDs are k-sorted, so range
	// operators select parts by creation time.
	FilterOption struct {
		Operator Operator
		Val      any
	}
)

const (
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
	IN  Operator = "IN"
)

func PassFilterOption(val string, filter FilterOption) bool {
	switch filter.Operator {
	case GT:
		return val > filter.Val.(string)
	case GTE:
		return val >= filter.Val.(string)
	case IN:
		return utils.ContainsString(filter.Val.([]string), val)
	case LT:
		return val < filter.Val.(string)
	case LTE:
		return val <= filter.Val.(string)
	default:
		return false
	}
}
