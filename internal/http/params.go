package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-catalog/internal/query"
)

var errNotPositive = errors.New("must be greater than 0")

func pathID(r *http.Request, name string) (int64, error) {
	var id int64
	if err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	}); err != nil {
		return 0, &apierr.InvalidParamError{Param: name, Err: err}
	}
	if id <= 0 {
		return 0, &apierr.InvalidParamError{Param: name, Err: errNotPositive}
	}
	return id, nil
}

// bindQuery binds an optional form-style query parameter into dest, which
// must be a pointer to a pointer.
func bindQuery(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return &apierr.InvalidParamError{Param: name, Err: err}
	}
	return nil
}

// queryIntIn binds an optional integer that must lie in [lo, hi]. A hi of 0
// leaves it unbounded above.
func queryIntIn(r *http.Request, name string, lo, hi int) (*int, error) {
	var v *int
	if err := bindQuery(r, name, &v); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	if *v < lo {
		return nil, &apierr.InvalidParamError{Param: name, Err: fmt.Errorf("must be at least %d", lo)}
	}
	if hi > 0 && *v > hi {
		return nil, &apierr.InvalidParamError{Param: name, Err: fmt.Errorf("must be at most %d", hi)}
	}
	return v, nil
}

func queryString(r *http.Request, names ...string) (string, error) {
	for _, name := range names {
		var v *string
		if err := bindQuery(r, name, &v); err != nil {
			return "", err
		}
		if v != nil && strings.TrimSpace(*v) != "" {
			return strings.TrimSpace(*v), nil
		}
	}
	return "", nil
}

func queryDecimal(r *http.Request, name string) (*decimal.Decimal, error) {
	s, err := queryString(r, name)
	if err != nil || s == "" {
		return nil, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, &apierr.InvalidParamError{Param: name, Err: errors.New("must be a number")}
	}
	if d.IsNegative() {
		return nil, &apierr.InvalidParamError{Param: name, Err: errors.New("must not be negative")}
	}
	return &d, nil
}

// queryTime accepts RFC 3339 timestamps and plain dates.
func queryTime(r *http.Request, name string) (*time.Time, error) {
	var v *time.Time
	if err := bindQuery(r, name, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// queryIDs binds a required comma separated list of positive ids.
func queryIDs(r *http.Request, name string) ([]int64, error) {
	var ids []int64
	if err := runtime.BindQueryParameter("form", false, true, name, r.URL.Query(), &ids); err != nil {
		return nil, &apierr.InvalidParamError{Param: name, Err: err}
	}
	if len(ids) == 0 {
		return nil, &apierr.InvalidParamError{Param: name, Err: errors.New("no ids provided")}
	}
	for _, id := range ids {
		if id <= 0 {
			return nil, &apierr.InvalidParamError{Param: name, Err: errNotPositive}
		}
	}
	return ids, nil
}

// pagination reads skip/limit and page/size. defaultLimit applies when neither
// limit nor size is given.
func pagination(r *http.Request, defaultLimit, maxLimit int) (query.Pagination, error) {
	var (
		p   query.PageParams
		err error
	)
	if p.Skip, err = queryIntIn(r, "skip", 0, 0); err != nil {
		return query.Pagination{}, err
	}
	if p.Limit, err = queryIntIn(r, "limit", 1, maxLimit); err != nil {
		return query.Pagination{}, err
	}
	if p.Page, err = queryIntIn(r, "page", 1, 0); err != nil {
		return query.Pagination{}, err
	}
	if p.Size, err = queryIntIn(r, "size", 1, maxLimit); err != nil {
		return query.Pagination{}, err
	}
	pg, err := query.Resolve(p, defaultLimit, maxLimit)
	if err != nil {
		return query.Pagination{}, &apierr.InvalidParamError{Param: "page", Err: err}
	}
	return pg, nil
}

// sorting reads sort/order, also accepting sort_by/sort_order.
func sorting(r *http.Request) (query.Sort, error) {
	field, err := queryString(r, "sort", "sort_by")
	if err != nil {
		return query.Sort{}, err
	}
	order, err := queryString(r, "order", "sort_order")
	if err != nil {
		return query.Sort{}, err
	}
	return query.Sort{Field: field, Direction: query.ParseDirection(order)}, nil
}
