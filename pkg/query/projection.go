// Package query builds parameterized PostgreSQL SELECT statements from a
// projection that maps view field names onto qualified columns.
package query

import (
	"fmt"
	"strings"
)

type join struct {
	kind   string
	schema string
	table  string
	alias  string
	on     string
}

// ProjectionMap maps view field names to qualified column references
// (alias.column). Columns projected after a Join are qualified with the
// joined table's alias.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	current string
	joins   []join
	fields  map[string]string
	order   []string
}

// NewProjectionMap creates a ProjectionMap for the given schema, table, and alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:  schema,
		table:   table,
		alias:   alias,
		current: alias,
		fields:  make(map[string]string),
	}
}

// Project maps column, on the most recently joined table, to field.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.current + "." + column
	p.fields[field] = qualified
	p.order = append(p.order, qualified)
	return p
}

// Join adds a joined table. Subsequent Project calls resolve against alias.
func (p *ProjectionMap) Join(schema, table, alias, kind, on string) *ProjectionMap {
	p.joins = append(p.joins, join{
		kind:   kind,
		schema: schema,
		table:  table,
		alias:  alias,
		on:     on,
	})
	p.current = alias
	return p
}

// From returns the base table and its joins as a FROM clause body.
func (p *ProjectionMap) From() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s.%s %s", p.schema, p.table, p.alias)
	for _, j := range p.joins {
		fmt.Fprintf(&b, " %s %s.%s %s ON %s", j.kind, j.schema, j.table, j.alias, j.on)
	}
	return b.String()
}

// Lookup returns the qualified column for field.
func (p *ProjectionMap) Lookup(field string) (string, bool) {
	col, ok := p.fields[field]
	return col, ok
}

// Columns returns every projected column as a select list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.order, ", ")
}
