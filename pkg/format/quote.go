package format

import (
	"strings"
	"unicode"

	"github.com/leapstack-labs/leapdbml/pkg/model"
)

// reserved names are quoted so they are not read as sub-elements.
var reserved = map[string]bool{
	"note":    true,
	"indexes": true,
	"ref":     true,
	"as":      true,
}

// Name returns name as written in DBML, double-quoted unless it is a
// plain identifier.
func Name(name string) string {
	if isIdentifier(name) && !reserved[strings.ToLower(name)] {
		return name
	}
	return quote(name, '"')
}

// QualifiedName returns schema.name with each part quoted as needed.
func QualifiedName(schema, name string) string {
	if schema == "" {
		return Name(name)
	}
	return Name(schema) + "." + Name(name)
}

// String returns s as a single-quoted DBML string.
func String(s string) string {
	return quote(s, '\'')
}

// Expression returns s as a backtick function expression.
func Expression(s string) string {
	return quote(s, '`')
}

// ColumnType returns the type of a column as written.
func ColumnType(t model.ColumnType) string {
	s := QualifiedName(t.Schema, t.Name)
	if t.Args != "" {
		s += "(" + t.Args + ")"
	}
	return s
}

// DefaultValue returns the literal form of a column default.
func DefaultValue(v model.DefaultValue) string {
	switch v.Kind {
	case model.DefaultString:
		return String(v.Value)
	case model.DefaultExpression:
		return Expression(v.Value)
	case model.DefaultEnum:
		parts := strings.Split(v.Value, ".")
		for i, part := range parts {
			parts[i] = Name(part)
		}
		return strings.Join(parts, ".")
	default:
		return v.Value
	}
}

// Endpoint returns table.column or table.(a, b).
func Endpoint(ep model.Endpoint) string {
	table := QualifiedName(ep.Schema, ep.Table)
	if len(ep.Columns) == 1 {
		return table + "." + Name(ep.Columns[0])
	}
	cols := make([]string, len(ep.Columns))
	for i, c := range ep.Columns {
		cols[i] = Name(c)
	}
	return table + ".(" + strings.Join(cols, ", ") + ")"
}

// RelationOp returns the operator relating the two endpoints of ref.
func RelationOp(ref model.Ref) string {
	left, right := ref.Endpoints[0].Relation, ref.Endpoints[1].Relation
	switch {
	case left == model.Many && right == model.Many:
		return "<>"
	case left == model.One && right == model.Many:
		return "<"
	case left == model.Many && right == model.One:
		return ">"
	default:
		return "-"
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

func quote(s string, q byte) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '\\':
			b.WriteString(`\\`)
		case q:
			b.WriteByte('\\')
			b.WriteByte(ch)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(ch)
		}
	}
	b.WriteByte(q)
	return b.String()
}
