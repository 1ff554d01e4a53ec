package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// SortField is one ORDER BY term keyed by view field name.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields parses a comma-separated sort string such as
// "Title,-UploadedAt". A leading "-" sorts descending. Empty input yields nil.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	fields := []SortField{}
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// condition holds a clause whose "?" markers are numbered into $n
// placeholders when the statement is rendered.
type condition struct {
	clause string
	args   []any
}

// Builder accumulates conditions and ordering over a projection. Field
// names that the projection does not map are never written into SQL:
// conditions on them are skipped and sort terms are dropped.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder for projection. defaultSort applies when no
// usable sort is set with OrderByFields.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// OrderByFields replaces the requested sort.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// WhereEquals adds column = value. Nil values, including typed nil
// pointers, are ignored.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	col, ok := b.projection.Lookup(field)
	if !ok || isNil(value) {
		return b
	}
	b.conditions = append(b.conditions, condition{
		clause: col + " = ?",
		args:   []any{value},
	})
	return b
}

// WhereContains adds a case-insensitive substring match. Nil or empty
// values are ignored.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.WhereSearch(value, field)
}

// WhereSearch matches value as a case-insensitive substring of any of the
// fields. LIKE wildcards in value match literally.
func (b *Builder) WhereSearch(value *string, fields ...string) *Builder {
	if value == nil || *value == "" {
		return b
	}

	pattern := "%" + escapeLike(*value) + "%"
	var clauses []string
	var args []any
	for _, field := range fields {
		col, ok := b.projection.Lookup(field)
		if !ok {
			continue
		}
		clauses = append(clauses, col+` ILIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}

	switch len(clauses) {
	case 0:
		return b
	case 1:
		b.conditions = append(b.conditions, condition{clause: clauses[0], args: args})
	default:
		b.conditions = append(b.conditions, condition{
			clause: "(" + strings.Join(clauses, " OR ") + ")",
			args:   args,
		})
	}
	return b
}

// Build returns the filtered, ordered SELECT.
func (b *Builder) Build() (string, []any) {
	where, args := b.where()
	return b.selectFrom() + where + b.orderBy(), args
}

// BuildCount returns a COUNT(*) over the filtered rows.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.where()
	return "SELECT COUNT(*) FROM " + b.projection.From() + where, args
}

// BuildPage returns the filtered, ordered SELECT bounded by limit and offset.
func (b *Builder) BuildPage(limit, offset int) (string, []any) {
	sql, args := b.Build()
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", sql, limit, offset), args
}

// BuildSingle selects the row whose field equals id. Conditions and
// ordering are not applied. It panics when field is not projected.
func (b *Builder) BuildSingle(field string, id any) (string, []any) {
	col, ok := b.projection.Lookup(field)
	if !ok {
		panic(fmt.Sprintf("query: field %q is not projected", field))
	}
	return b.selectFrom() + " WHERE " + col + " = $1", []any{id}
}

func (b *Builder) selectFrom() string {
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.From()
}

func (b *Builder) where() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var sb strings.Builder
	var args []any
	sb.WriteString(" WHERE ")
	for i, c := range b.conditions {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		next := 0
		for _, r := range c.clause {
			if r != '?' {
				sb.WriteRune(r)
				continue
			}
			args = append(args, c.args[next])
			next++
			sb.WriteString("$" + strconv.Itoa(len(args)))
		}
	}
	return sb.String(), args
}

func (b *Builder) orderBy() string {
	terms := b.terms(b.sort)
	if len(terms) == 0 {
		terms = b.terms(b.defaultSort)
	}
	if len(terms) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

func (b *Builder) terms(fields []SortField) []string {
	var terms []string
	for _, f := range fields {
		col, ok := b.projection.Lookup(f.Field)
		if !ok {
			continue
		}
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		terms = append(terms, col+" "+dir)
	}
	return terms
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
