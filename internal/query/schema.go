// Package query turns filter, search, sort and pagination requests into SQL
// fragments with named arguments, checked against a static field registry.
package query

import (
	"fmt"
	"regexp"
	"sort"
)

// Kind is the storage type of a field; it decides how filter values are encoded
// and whether the field can take part in text search.
type Kind uint8

const (
	KindText Kind = iota
	KindInt
	KindNumeric
	KindFloat
	KindTime
)

type Field struct {
	Column     string
	Kind       Kind
	Sortable   bool
	Filterable bool
	Searchable bool
}

// Schema is the field registry of one entity, keyed by the public field name.
type Schema struct {
	// ID is the public name of the identifier field, used as default sort key
	// and tiebreaker.
	ID     string
	Fields map[string]Field
}

var identRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Validate checks that every name and column is a plain identifier and that
// the id field exists.
func (s Schema) Validate() error {
	id, ok := s.Fields[s.ID]
	if !ok {
		return fmt.Errorf("id field %q not registered", s.ID)
	}
	if !id.Sortable {
		return fmt.Errorf("id field %q must be sortable", s.ID)
	}

	for name, f := range s.Fields {
		if !identRegex.MatchString(name) {
			return fmt.Errorf("invalid field name %q", name)
		}
		if !identRegex.MatchString(f.Column) {
			return fmt.Errorf("invalid column %q for field %q", f.Column, name)
		}
		if f.Searchable && f.Kind != KindText {
			return fmt.Errorf("field %q is searchable but not text", name)
		}
	}

	return nil
}

// MustSchema panics when s is invalid. Use it for package level registries.
func MustSchema(s Schema) Schema {
	if err := s.Validate(); err != nil {
		panic(fmt.Sprintf("query: %v", err))
	}
	return s
}

// Field returns the registered field for name.
func (s Schema) Field(name string) (Field, bool) {
	f, ok := s.Fields[name]
	return f, ok
}

// SearchFields returns the searchable field names in a stable order.
func (s Schema) SearchFields() []string {
	names := make([]string, 0, len(s.Fields))
	for name, f := range s.Fields {
		if f.Searchable {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (s Schema) idColumn() string {
	return s.Fields[s.ID].Column
}
