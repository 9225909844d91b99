package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

// Filter is one constraint on a field: Exact, Range or OneOf.
type Filter interface {
	condition(column, arg string, k Kind, args pgx.NamedArgs) (string, bool)
}

// Filters maps public field names to constraints. All constraints are ANDed.
type Filters map[string]Filter

// Exact matches rows whose field equals Value. A nil Value is ignored.
type Exact struct {
	Value any
}

// Range matches Min <= field <= Max. Either bound may be nil.
type Range struct {
	Min any
	Max any
}

// OneOf matches rows whose field is one of Values. An empty set matches nothing.
type OneOf struct {
	Values []any
}

// In builds a OneOf from a typed slice.
func In[T any](values ...T) OneOf {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return OneOf{Values: out}
}

func (e Exact) condition(column, arg string, k Kind, args pgx.NamedArgs) (string, bool) {
	if e.Value == nil {
		return "", false
	}
	args[arg] = Encode(k, e.Value)
	return fmt.Sprintf("%s = @%s", column, arg), true
}

func (r Range) condition(column, arg string, k Kind, args pgx.NamedArgs) (string, bool) {
	var conds []string
	if r.Min != nil {
		args[arg+"_min"] = Encode(k, r.Min)
		conds = append(conds, fmt.Sprintf("%s >= @%s_min", column, arg))
	}
	if r.Max != nil {
		args[arg+"_max"] = Encode(k, r.Max)
		conds = append(conds, fmt.Sprintf("%s <= @%s_max", column, arg))
	}
	if len(conds) == 0 {
		return "", false
	}
	return strings.Join(conds, " AND "), true
}

func (o OneOf) condition(column, arg string, k Kind, args pgx.NamedArgs) (string, bool) {
	if len(o.Values) == 0 {
		return "FALSE", true
	}

	placeholders := make([]string, len(o.Values))
	for i, v := range o.Values {
		name := fmt.Sprintf("%s_%d", arg, i)
		args[name] = Encode(k, v)
		placeholders[i] = "@" + name
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")), true
}

// Search is a case-insensitive substring match ORed across Fields.
type Search struct {
	Term   string
	Fields []string
}

// Criteria is everything that narrows a result set.
type Criteria struct {
	Filters Filters
	Search  Search
}

const searchArg = "search"

// Where compiles c into a WHERE clause (with a leading space) or an empty
// string. Unknown and non-filterable fields are ignored. Conditions appear in
// field name order so identical criteria always produce identical SQL.
func (s Schema) Where(c Criteria) (string, pgx.NamedArgs) {
	args := pgx.NamedArgs{}
	var conds []string

	names := make([]string, 0, len(c.Filters))
	for name := range c.Filters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f, ok := s.Fields[name]
		if !ok || !f.Filterable || c.Filters[name] == nil {
			continue
		}
		if cond, ok := c.Filters[name].condition(f.Column, "f_"+name, f.Kind, args); ok {
			conds = append(conds, cond)
		}
	}

	if cond, ok := s.searchCondition(c.Search, args); ok {
		conds = append(conds, cond)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s Schema) searchCondition(search Search, args pgx.NamedArgs) (string, bool) {
	term := strings.TrimSpace(search.Term)
	if term == "" {
		return "", false
	}

	var ors []string
	seen := map[string]struct{}{}
	for _, name := range search.Fields {
		f, ok := s.Fields[name]
		if !ok || !f.Searchable {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		ors = append(ors, fmt.Sprintf("%s ILIKE @%s", f.Column, searchArg))
	}
	if len(ors) == 0 {
		return "", false
	}

	args[searchArg] = "%" + escapeLike(term) + "%"
	return "(" + strings.Join(ors, " OR ") + ")", true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Encode converts v into the form pgx expects for a field of kind k.
func Encode(k Kind, v any) any {
	if k != KindNumeric {
		return v
	}
	switch d := v.(type) {
	case decimal.Decimal:
		return db.Numeric(d)
	case *decimal.Decimal:
		if d == nil {
			return nil
		}
		return db.Numeric(*d)
	}
	return v
}
