package ast

import (
	"strings"

	"github.com/leapstack-labs/leapdbml/pkg/token"
)

// Unwrap strips PrimaryExpression and GroupExpression wrappers.
func Unwrap(n Node) Node {
	for {
		switch v := n.(type) {
		case *PrimaryExpression:
			n = v.Expression
		case *GroupExpression:
			if IsNil(v.Expression) {
				return n
			}
			n = v.Expression
		default:
			return n
		}
	}
}

// AsVariable returns the Variable behind n, if n is one.
func AsVariable(n Node) (*Variable, bool) {
	v, ok := Unwrap(n).(*Variable)
	return v, ok
}

// AsLiteral returns the Literal behind n, if n is one.
func AsLiteral(n Node) (*Literal, bool) {
	l, ok := Unwrap(n).(*Literal)
	return l, ok
}

// IsIdentifier reports whether n is an unquoted identifier.
func IsIdentifier(n Node) bool {
	v, ok := AsVariable(n)
	return ok && v.Variable.Kind == token.IDENT
}

// IsMemberAccess reports whether n is an infix `.` expression.
func IsMemberAccess(n Node) bool {
	in, ok := Unwrap(n).(*InfixExpression)
	return ok && in.Op != nil && in.Op.Literal == "."
}

// Fragments flattens a member-access chain `a.b.c` into its segments,
// outermost first. A non-chain expression is returned as a single segment.
func Fragments(n Node) []Node {
	n = Unwrap(n)
	if in, ok := n.(*InfixExpression); ok && in.Op != nil && in.Op.Literal == "." {
		return append(Fragments(in.Left), Fragments(in.Right)...)
	}
	return []Node{n}
}

// VariableChain returns the segments of a chain of variables `a.b.c`.
// ok is false if any segment is not a variable.
func VariableChain(n Node) ([]*Variable, bool) {
	frags := Fragments(n)
	out := make([]*Variable, 0, len(frags))
	for _, f := range frags {
		v, ok := f.(*Variable)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// ChainNames returns the names of a variable chain.
func ChainNames(vars []*Variable) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.Name()
	}
	return out
}

// QualifiedName renders a variable chain as `a.b.c`; ok is false for
// anything else.
func QualifiedName(n Node) (string, bool) {
	vars, ok := VariableChain(n)
	if !ok {
		return "", false
	}
	return strings.Join(ChainNames(vars), "."), true
}

// StringValue returns the value of a string literal.
func StringValue(n Node) (string, bool) {
	l, ok := AsLiteral(n)
	if !ok || l.Literal.Kind != token.STRING {
		return "", false
	}
	return l.Literal.Literal, true
}

// WordStream returns the space-joined identifiers of `a`, `a b` style
// values, as in `set null`.
func WordStream(n Node) (string, bool) {
	n = Unwrap(n)
	switch v := n.(type) {
	case *Variable:
		if v.Variable.Kind != token.IDENT {
			return "", false
		}
		return v.Name(), true
	case *FunctionApplication:
		words := make([]string, 0, len(v.Args)+1)
		for _, part := range append([]Node{v.Callee}, v.Args...) {
			w, ok := WordStream(part)
			if !ok {
				return "", false
			}
			words = append(words, w)
		}
		return strings.Join(words, " "), true
	}
	return "", false
}
