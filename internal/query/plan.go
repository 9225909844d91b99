package query

import "github.com/jackc/pgx/v5"

// Spec is a complete list request.
type Spec struct {
	Criteria
	Sort Sort
	Page Page
}

// Plan is the compiled form of a Spec. Clauses carry a leading space so they
// can be appended to a SELECT ... FROM statement.
type Plan struct {
	Where   string
	OrderBy string
	Limit   string
	Args    pgx.NamedArgs
}

func (s Schema) Compile(spec Spec) Plan {
	where, args := s.Where(spec.Criteria)
	return Plan{
		Where:   where,
		OrderBy: s.OrderBy(spec.Sort),
		Limit:   spec.Page.clause(args),
		Args:    args,
	}
}

// Select appends the plan to a SELECT ... FROM statement.
func (p Plan) Select(selectFrom string) string {
	return selectFrom + p.Where + p.OrderBy + p.Limit
}
