package validator

import (
	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/token"
)

// Subfield is a non-element line of a complex body split into positional
// arguments and an optional trailing settings list.
type Subfield struct {
	Node     ast.Node
	Args     []ast.Node
	Settings *ast.ListExpression
}

// NewSubfield splits a body item. `id int [pk]` yields the arguments id and
// int plus the list; a lone expression yields one argument.
func NewSubfield(n ast.Node) *Subfield {
	sf := &Subfield{Node: n}
	var parts []ast.Node
	if app, ok := n.(*ast.FunctionApplication); ok {
		parts = append(parts, app.Callee)
		parts = append(parts, app.Args...)
	} else {
		parts = []ast.Node{n}
	}
	if last, ok := parts[len(parts)-1].(*ast.ListExpression); ok && len(parts) > 1 {
		sf.Settings = last
		parts = parts[:len(parts)-1]
	}
	sf.Args = parts
	return sf
}

// ---------- Shapes ----------

// IsName accepts a single identifier or quoted identifier.
func IsName(n ast.Node) bool {
	_, ok := ast.AsVariable(n)
	return ok
}

// IsQualifiedName accepts a chain of names `a.b.c`.
func IsQualifiedName(n ast.Node) bool {
	_, ok := ast.VariableChain(n)
	return ok
}

// IsColumnType accepts `int`, `schema.type` and `varchar(255)` style types.
func IsColumnType(n ast.Node) bool {
	n = ast.Unwrap(n)
	if call, ok := n.(*ast.CallExpression); ok {
		if !IsQualifiedName(call.Callee) {
			return false
		}
		for _, arg := range call.Args.Elements {
			if !isTypeArg(arg) {
				return false
			}
		}
		return true
	}
	return IsQualifiedName(n)
}

func isTypeArg(n ast.Node) bool {
	switch v := ast.Unwrap(n).(type) {
	case *ast.Literal, *ast.Variable:
		return true
	case *ast.PrefixExpression:
		_, ok := ast.AsLiteral(v.Expression)
		return ok && v.Op.Literal == "-"
	}
	return false
}

// IsRelationOp reports whether op is one of the relationship operators.
func IsRelationOp(op *token.Token) bool {
	if op == nil {
		return false
	}
	switch op.Literal {
	case "<", ">", "-", "<>":
		return true
	}
	return false
}

// Endpoint is one side of a relationship: the qualified table path and the
// referenced columns.
type Endpoint struct {
	Node    ast.Node
	Table   []*ast.Variable
	Columns []*ast.Variable
}

// Composite reports whether the endpoint names a column tuple.
func (e *Endpoint) Composite() bool {
	return len(e.Columns) > 1
}

// ParseEndpoint splits `schema.table.column` or `schema.table.(a, b)`.
func ParseEndpoint(n ast.Node) (*Endpoint, bool) {
	frags := ast.Fragments(n)
	if len(frags) < 2 {
		return nil, false
	}
	ep := &Endpoint{Node: n}
	for _, f := range frags[:len(frags)-1] {
		v, ok := f.(*ast.Variable)
		if !ok {
			return nil, false
		}
		ep.Table = append(ep.Table, v)
	}
	switch last := frags[len(frags)-1].(type) {
	case *ast.Variable:
		ep.Columns = []*ast.Variable{last}
	case *ast.TupleExpression:
		if len(last.Elements) == 0 {
			return nil, false
		}
		for _, el := range last.Elements {
			v, ok := ast.AsVariable(el)
			if !ok {
				return nil, false
			}
			ep.Columns = append(ep.Columns, v)
		}
	default:
		return nil, false
	}
	return ep, true
}

// Relationship is a parsed `left op right [settings]` expression.
type Relationship struct {
	Op       *token.Token
	Left     *Endpoint
	Right    *Endpoint
	Settings *ast.ListExpression
}

// ParseRelationship splits a relationship expression. The returned node is
// the offending part when ok is false.
func ParseRelationship(n ast.Node) (*Relationship, ast.Node, bool) {
	rel := &Relationship{}
	expr := n
	if app, ok := n.(*ast.FunctionApplication); ok {
		if len(app.Args) != 1 {
			return nil, n, false
		}
		list, ok := app.Args[0].(*ast.ListExpression)
		if !ok {
			return nil, app.Args[0], false
		}
		rel.Settings = list
		expr = app.Callee
	}
	in, ok := ast.Unwrap(expr).(*ast.InfixExpression)
	if !ok || !IsRelationOp(in.Op) {
		return nil, expr, false
	}
	rel.Op = in.Op
	if rel.Left, ok = ParseEndpoint(in.Left); !ok {
		return nil, in.Left, false
	}
	if rel.Right, ok = ParseEndpoint(in.Right); !ok {
		return nil, in.Right, false
	}
	return rel, nil, true
}
