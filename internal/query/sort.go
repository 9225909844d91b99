package query

import (
	"fmt"
	"strings"
)

type Direction uint8

const (
	Asc Direction = iota
	Desc
)

// ParseDirection reads "desc" (any case) as Desc and everything else as Asc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Desc
	}
	return Asc
}

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

type Sort struct {
	Field     string
	Direction Direction
	// Tiebreak orders rows that share Field by id. Ascending by default.
	Tiebreak  Direction
}

// OrderBy compiles sort into an ORDER BY clause. Unknown or non-sortable fields
// fall back to ascending id. The id is always appended as tiebreaker so that
// pages never overlap.
func (s Schema) OrderBy(sort Sort) string {
	id := s.idColumn()

	f, ok := s.Fields[sort.Field]
	if !ok || !f.Sortable || sort.Field == s.ID {
		dir := Asc
		if ok && sort.Field == s.ID {
			dir = sort.Direction
		}
		return fmt.Sprintf(" ORDER BY %s %s", id, dir)
	}

	return fmt.Sprintf(" ORDER BY %s %s, %s %s", f.Column, sort.Direction, id, sort.Tiebreak)
}
