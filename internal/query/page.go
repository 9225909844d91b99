package query

import (
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
)

// Page is an offset window. Limit <= 0 means no limit.
type Page struct {
	Skip  int
	Limit int
}

// Unlimited selects every row.
var Unlimited = Page{}

const (
	limitArg  = "page_limit"
	offsetArg = "page_offset"
)

func (p Page) clause(args pgx.NamedArgs) string {
	var out string
	if p.Limit > 0 {
		args[limitArg] = p.Limit
		out = fmt.Sprintf(" LIMIT @%s", limitArg)
	}
	if p.Skip > 0 {
		args[offsetArg] = p.Skip
		out += fmt.Sprintf(" OFFSET @%s", offsetArg)
	}
	return out
}

// PageParams carries both addressing modes as received from a client.
type PageParams struct {
	Skip  *int
	Limit *int
	Page  *int
	Size  *int
}

// Pagination is a resolved window plus the page number and size reported back
// to the client.
type Pagination struct {
	Page
	Number int
	Size   int
}

// ErrPageOutOfRange is returned when the offset of the requested page does
// not fit in an int.
var ErrPageOutOfRange = errors.New("page is out of range")

// Resolve reconciles skip/limit with page/size. Size overrides limit and a page
// number overrides skip with (page-1)*size. Page numbers are 1-based.
func Resolve(p PageParams, defaultLimit, maxLimit int) (Pagination, error) {
	size := defaultLimit
	if p.Limit != nil {
		size = *p.Limit
	}
	if p.Size != nil {
		size = *p.Size
	}
	if maxLimit > 0 && size > maxLimit {
		size = maxLimit
	}
	if size < 0 {
		size = 0
	}

	skip := 0
	if p.Skip != nil && *p.Skip > 0 {
		skip = *p.Skip
	}

	number := 1
	switch {
	case p.Page != nil && *p.Page >= 1:
		number = *p.Page
		if size > 0 && number-1 > math.MaxInt/size {
			return Pagination{}, ErrPageOutOfRange
		}
		skip = (number - 1) * size
	case size > 0:
		number = skip/size + 1
	}

	return Pagination{
		Page:   Page{Skip: skip, Limit: size},
		Number: number,
		Size:   size,
	}, nil
}

// Pages is ceil(total/size); a non-positive size counts as a single page.
func Pages(total int64, size int) int {
	if size <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}
